// Copyright 2026 Northern.tech AS
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package mongo

import (
	"reflect"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

var tUUID = reflect.TypeOf(uuid.UUID{})

// registry encodes uuid.UUID values as BSON binary subtype 4. Machine and
// device ids imported from the fleet database are still stored as strings;
// they are decoded as well.
var registry = newRegistry()

func newRegistry() *bsoncodec.Registry {
	codec := uuidCodec{}
	return bson.NewRegistryBuilder().
		RegisterTypeEncoder(tUUID, codec).
		RegisterTypeDecoder(tUUID, codec).
		Build()
}

type uuidCodec struct{}

func (uuidCodec) EncodeValue(
	_ bsoncodec.EncodeContext,
	w bsonrw.ValueWriter,
	val reflect.Value,
) error {
	if !val.IsValid() || val.Type() != tUUID {
		return bsoncodec.ValueEncoderError{
			Name:     "uuidCodec.EncodeValue",
			Types:    []reflect.Type{tUUID},
			Received: val,
		}
	}
	id := val.Interface().(uuid.UUID)
	return w.WriteBinaryWithSubtype(id[:], bsontype.BinaryUUID)
}

func (uuidCodec) DecodeValue(
	_ bsoncodec.DecodeContext,
	r bsonrw.ValueReader,
	val reflect.Value,
) error {
	if !val.CanSet() || val.Type() != tUUID {
		return bsoncodec.ValueDecoderError{
			Name:     "uuidCodec.DecodeValue",
			Types:    []reflect.Type{tUUID},
			Received: val,
		}
	}

	id := uuid.Nil
	var err error
	switch bsonType := r.Type(); bsonType {
	case bsontype.Binary:
		id, err = readBinaryUUID(r)
	case bsontype.String:
		var s string
		if s, err = r.ReadString(); err == nil {
			id, err = uuid.Parse(s)
		}
	case bsontype.Null:
		err = r.ReadNull()
	case bsontype.Undefined:
		err = r.ReadUndefined()
	default:
		err = errors.Errorf("cannot decode %v as a UUID", bsonType)
	}
	if err != nil {
		return err
	}
	val.Set(reflect.ValueOf(id))
	return nil
}

func readBinaryUUID(r bsonrw.ValueReader) (uuid.UUID, error) {
	data, subtype, err := r.ReadBinary()
	if err != nil {
		return uuid.Nil, err
	}
	switch subtype {
	case bsontype.BinaryGeneric, bsontype.BinaryUUID, bsontype.BinaryUUIDOld:
		id, err := uuid.FromBytes(data)
		if err != nil {
			return uuid.Nil, errors.Wrapf(err, "cannot decode %v as a UUID", data)
		}
		return id, nil
	default:
		return uuid.Nil, errors.Errorf(
			"cannot decode %v as a UUID: incorrect subtype 0x%02x", data, subtype)
	}
}
