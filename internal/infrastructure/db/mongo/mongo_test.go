package mongo

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestChangeStreamTopology(t *testing.T) {
	cases := []struct {
		name  string
		hello bson.M
		err   error
	}{
		{"replica set member", bson.M{"isWritablePrimary": true, "setName": "rs0"}, nil},
		{"mongos router", bson.M{"isWritablePrimary": true, "msg": "isdbgrid"}, nil},
		{"standalone", bson.M{"isWritablePrimary": true, "maxWireVersion": int32(21)}, ErrNoChangeStreams},
		{"empty set name", bson.M{"setName": ""}, ErrNoChangeStreams},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := changeStreamTopology(tc.hello); !errors.Is(err, tc.err) {
				t.Fatalf("changeStreamTopology(%v) = %v, want %v", tc.hello, err, tc.err)
			}
		})
	}
}
