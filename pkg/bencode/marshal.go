package bencode

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sync"
)

// Bytes holds one complete encoded value. As a struct field it captures the
// exact input bytes of that value, so it can be hashed or decoded later.
type Bytes []byte

// Marshaler is implemented by types that produce their own encoding. The
// output must be a single valid value; it is re-encoded canonically.
type Marshaler interface {
	MarshalBencode() ([]byte, error)
}

var (
	bigIntType    = reflect.TypeOf((*big.Int)(nil)).Elem()
	valueType     = reflect.TypeOf((*Value)(nil)).Elem()
	bytesType     = reflect.TypeOf(Bytes(nil))
	marshalerType = reflect.TypeOf((*Marshaler)(nil)).Elem()
)

// ValueOf converts a Go value into a Value tree.
func ValueOf(v interface{}) (Value, error) {
	if v == nil {
		return nil, &EncodeError{Err: ErrInvalidValue, Detail: "nil"}
	}

	return valueOf(reflect.ValueOf(v))
}

func valueOf(v reflect.Value) (Value, error) {
	t := v.Type()

	switch {
	case t == bytesType:
		if v.Len() == 0 {
			return nil, &EncodeError{Err: ErrInvalidValue, Detail: "empty raw bencode"}
		}
		return Decode(v.Bytes())
	case v.Kind() != reflect.Interface && t.Implements(marshalerType) && !(v.Kind() == reflect.Ptr && v.IsNil()):
		return marshalerValue(v.Interface().(Marshaler))
	case v.CanAddr() && reflect.PointerTo(t).Implements(marshalerType):
		return marshalerValue(v.Addr().Interface().(Marshaler))
	case v.Kind() != reflect.Ptr && v.Kind() != reflect.Interface && t.Implements(valueType):
		return v.Interface().(Value), nil
	case t == bigIntType:
		bi := v.Interface().(big.Int)
		return bigIntValue(&bi)
	case v.Kind() == reflect.Ptr && t.Elem() == bigIntType && !v.IsNil():
		return bigIntValue(v.Interface().(*big.Int))
	}

	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return Integer(1), nil
		}
		return Integer(0), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Integer(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt64 {
			return nil, &EncodeError{Err: ErrIntegerOutOfRange, Detail: fmt.Sprintf("%d", u)}
		}
		return Integer(int64(u)), nil
	case reflect.String:
		return String(v.String()), nil
	case reflect.Struct:
		dict := Dict{}

		for _, ef := range getEncodeFields(t) {
			fieldValue := ef.i(v)
			if !fieldValue.IsValid() {
				continue
			}

			// A nil pointer field is absent, not a zero value.
			if fieldValue.Kind() == reflect.Ptr && fieldValue.IsNil() {
				continue
			}

			if ef.omitEmpty && isEmptyValue(fieldValue) {
				continue
			}

			val, err := valueOf(fieldValue)
			if err != nil {
				return nil, err
			}
			dict[ef.tag] = val
		}

		return dict, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, &MarshalTypeError{t}
		}

		dict := make(Dict, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			val, err := valueOf(iter.Value())
			if err != nil {
				return nil, err
			}
			dict[iter.Key().String()] = val
		}

		return dict, nil
	case reflect.Slice, reflect.Array:
		return sequenceValue(v)
	case reflect.Interface:
		if v.IsNil() {
			return nil, &EncodeError{Err: ErrInvalidValue, Detail: fmt.Sprintf("nil %v", t)}
		}

		return valueOf(v.Elem())
	case reflect.Ptr:
		if v.IsNil() {
			v = reflect.Zero(t.Elem())
		} else {
			v = v.Elem()
		}

		return valueOf(v)
	default:
		return nil, &MarshalTypeError{t}
	}
}

func marshalerValue(m Marshaler) (Value, error) {
	b, err := m.MarshalBencode()
	if err != nil {
		return nil, err
	}

	return Decode(b)
}

func bigIntValue(bi *big.Int) (Value, error) {
	if !bi.IsInt64() {
		return nil, &EncodeError{Err: ErrIntegerOutOfRange, Detail: bi.String()}
	}

	return Integer(bi.Int64()), nil
}

func sequenceValue(v reflect.Value) (Value, error) {
	if v.Type().Elem().Kind() == reflect.Uint8 {
		b := make([]byte, v.Len())
		for i := range b {
			b[i] = byte(v.Index(i).Uint())
		}
		return String(b), nil
	}

	list := make(List, 0, v.Len())
	for i, n := 0, v.Len(); i < n; i++ {
		val, err := valueOf(v.Index(i))
		if err != nil {
			return nil, err
		}
		list = append(list, val)
	}

	return list, nil
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Func, reflect.Map, reflect.Slice, reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Array:
		z := true

		for i := 0; i < v.Len(); i++ {
			z = z && isEmptyValue(v.Index(i))
		}

		return z
	case reflect.Struct:
		z := true
		vType := v.Type()

		for i := 0; i < v.NumField(); i++ {
			// ignore unexported fields to avoid reflection panics
			if !vType.Field(i).IsExported() {
				continue
			}
			z = z && isEmptyValue(v.Field(i))
		}

		return z
	}

	return v.IsZero()
}

type encodeField struct {
	i         func(v reflect.Value) reflect.Value
	tag       string
	omitEmpty bool
}

var (
	typeCacheLock     sync.RWMutex
	encodeFieldsCache = make(map[reflect.Type][]encodeField)
)

func getEncodeFields(t reflect.Type) []encodeField {
	typeCacheLock.RLock()
	fs, ok := encodeFieldsCache[t]
	typeCacheLock.RUnlock()

	if ok {
		return fs
	}

	fs = makeEncodeFields(t)
	typeCacheLock.Lock()
	defer typeCacheLock.Unlock()
	encodeFieldsCache[t] = fs

	return fs
}

func makeEncodeFields(t reflect.Type) (fs []encodeField) {
	for _i, n := 0, t.NumField(); _i < n; _i++ {
		i := _i
		f := t.Field(i)
		tv := getTag(f.Tag)

		if tv.Ignore() {
			continue
		}

		if f.Anonymous && tv.Key() == "" && embeddedStruct(f.Type) {
			anonEFs := makeEncodeFields(indirectType(f.Type))
			for aefi := range anonEFs {
				anonEF := anonEFs[aefi]
				bottomField := anonEF
				bottomField.i = func(v reflect.Value) reflect.Value {
					v = v.Field(i)
					if v.Kind() == reflect.Ptr {
						if v.IsNil() {
							// This will skip serializing this value.
							return reflect.Value{}
						}
						v = v.Elem()
					}
					return anonEF.i(v)
				}
				fs = append(fs, bottomField)
			}
			continue
		}

		if !f.IsExported() {
			continue
		}

		ef := encodeField{
			i: func(v reflect.Value) reflect.Value {
				return v.Field(i)
			},
			tag:       f.Name,
			omitEmpty: tv.OmitEmpty(),
		}

		if tv.Key() != "" {
			ef.tag = tv.Key()
		}

		fs = append(fs, ef)
	}

	return fs
}

func indirectType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Ptr {
		return t.Elem()
	}
	return t
}

func embeddedStruct(t reflect.Type) bool {
	return indirectType(t).Kind() == reflect.Struct
}
