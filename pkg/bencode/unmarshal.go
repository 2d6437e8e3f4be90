package bencode

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"sync"
)

// Unmarshaler is implemented by types that decode themselves from the raw
// encoding of a single value.
type Unmarshaler interface {
	UnmarshalBencode([]byte) error
}

var unmarshalerType = reflect.TypeOf((*Unmarshaler)(nil)).Elem()

func (d *Decoder) unmarshalValue(v reflect.Value) error {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			v.Set(reflect.New(v.Type().Elem()))
		}

		return d.unmarshalValue(v.Elem())
	}

	if v.Type() == bytesType {
		s, err := d.Skip()
		if err != nil {
			return err
		}

		v.SetBytes(bytes.Clone(d.data[s.Start:s.End]))
		return nil
	}

	ok, err := d.unmarshalUnmarshaler(v)
	if ok || err != nil {
		return err
	}

	if v.Kind() == reflect.Interface {
		return d.unmarshalInterface(v)
	}

	b, err := d.Peek()
	if err != nil {
		return err
	}

	switch {
	case b == 'i':
		return d.unmarshalInt(v)
	case isDigit(b):
		return d.unmarshalString(v)
	case b == 'l':
		return d.unmarshalList(v)
	case b == 'd':
		return d.unmarshalDict(v)
	default:
		return d.unknownValueType(b, d.Offset)
	}
}

func (d *Decoder) unmarshalUnmarshaler(v reflect.Value) (bool, error) {
	if !v.CanAddr() || !v.Addr().Type().Implements(unmarshalerType) {
		return false, nil
	}

	s, err := d.Skip()
	if err != nil {
		return false, err
	}

	m := v.Addr().Interface().(Unmarshaler)
	if err := m.UnmarshalBencode(bytes.Clone(d.data[s.Start:s.End])); err != nil {
		return false, err
	}

	return true, nil
}

// unmarshalInterface stores a Value tree into Value targets and plain Go
// values (int64, string, []interface{}, map[string]interface{}) into empty
// interfaces.
func (d *Decoder) unmarshalInterface(v reflect.Value) error {
	val, err := d.Decode()
	if err != nil {
		return err
	}

	switch {
	case v.Type() == valueType:
		v.Set(reflect.ValueOf(val))
	case v.NumMethod() == 0:
		v.Set(reflect.ValueOf(nativeOf(val)))
	default:
		return &UnmarshalTypeError{
			BencodeTypeName:     val.Kind().String(),
			UnmarshalTargetType: v.Type(),
		}
	}

	return nil
}

func (d *Decoder) unmarshalInt(v reflect.Value) error {
	n, err := d.ReadInt()
	if err != nil {
		return err
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.OverflowInt(n) {
			return d.typeError("int", v)
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if n < 0 || v.OverflowUint(uint64(n)) {
			return d.typeError("int", v)
		}
		v.SetUint(uint64(n))
	case reflect.Bool:
		v.SetBool(n != 0)
	default:
		return d.typeError("int", v)
	}

	return nil
}

func (d *Decoder) unmarshalString(v reflect.Value) error {
	s, err := d.ReadBytes()
	if err != nil {
		return err
	}

	switch v.Kind() {
	case reflect.String:
		v.SetString(string(s))
		return nil
	case reflect.Slice:
		if v.Type().Elem().Kind() != reflect.Uint8 {
			break
		}
		v.SetBytes(bytes.Clone(s))
		return nil
	case reflect.Array:
		if v.Type().Elem().Kind() != reflect.Uint8 || v.Len() != len(s) {
			break
		}
		reflect.Copy(v, reflect.ValueOf([]byte(s)))
		return nil
	case reflect.Bool:
		x, err := strconv.ParseBool(string(s))
		if err != nil {
			x = len(s) != 0
		}
		v.SetBool(x)
		return nil
	}

	return d.typeError("string", v)
}

func (d *Decoder) unmarshalList(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return d.skipWithTypeError("list", v)
	}

	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()

	if v.Kind() == reflect.Slice {
		v.Set(reflect.MakeSlice(v.Type(), 0, 0))
	}

	i := 0
	for ; ; i++ {
		b, err := d.Peek()
		if err != nil {
			return err
		}

		if b == 'e' {
			d.Offset++
			break
		}

		switch {
		case v.Kind() == reflect.Slice:
			v.Set(reflect.Append(v, reflect.Zero(v.Type().Elem())))
			err = d.unmarshalValue(v.Index(i))
		case i < v.Len():
			err = d.unmarshalValue(v.Index(i))
		default:
			err = d.skipValue()
		}

		if err != nil {
			return err
		}
	}

	// fulfill remaining element with default value
	if v.Kind() == reflect.Array {
		z := reflect.Zero(v.Type().Elem())
		for n := v.Len(); i < n; i++ {
			v.Index(i).Set(z)
		}
	}

	return nil
}

func (d *Decoder) unmarshalDict(v reflect.Value) error {
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return d.skipWithTypeError("dict", v)
		}
		if v.IsNil() {
			v.Set(reflect.MakeMap(v.Type()))
		}
	case reflect.Struct:
	default:
		return d.skipWithTypeError("dict", v)
	}

	if err := d.enter(); err != nil {
		return err
	}
	defer d.leave()

	var keys keyChecker

	for {
		b, err := d.Peek()
		if err != nil {
			return err
		}

		if b == 'e' {
			d.Offset++
			return nil
		}

		keyStart := d.Offset
		key, err := d.ReadBytes()
		if err != nil {
			return fmt.Errorf("error parsing dict key: %w", err)
		}

		if err := d.checkKey(&keys, key, keyStart); err != nil {
			return err
		}

		if v.Kind() == reflect.Map {
			elem := reflect.New(v.Type().Elem()).Elem()
			if err := d.unmarshalValue(elem); err != nil {
				return fmt.Errorf("parsing value for key %q: %w", key, err)
			}
			v.SetMapIndex(reflect.ValueOf(string(key)).Convert(v.Type().Key()), elem)
			continue
		}

		df, ok := getStructFieldForKey(v.Type(), string(key))
		if !ok {
			if err := d.skipValue(); err != nil {
				return err
			}
			continue
		}

		valueStart := d.Offset
		fv := fieldByIndexAlloc(v, df.index)
		if err := d.unmarshalValue(fv); err != nil {
			var target *UnmarshalTypeError
			if !(errors.As(err, &target) && df.tags.IgnoreUnmarshalTypeError()) {
				return fmt.Errorf("parsing value for key %q: %w", key, err)
			}

			// the failed value may have been left half read
			d.Offset = valueStart
			if err := d.skipValue(); err != nil {
				return err
			}
			fv.Set(reflect.Zero(fv.Type()))
		}
	}
}

func (d *Decoder) typeError(bencodeType string, v reflect.Value) *UnmarshalTypeError {
	return &UnmarshalTypeError{
		BencodeTypeName:     bencodeType,
		UnmarshalTargetType: v.Type(),
	}
}

func (d *Decoder) skipWithTypeError(bencodeType string, v reflect.Value) error {
	if err := d.skipValue(); err != nil {
		return err
	}

	return d.typeError(bencodeType, v)
}

func nativeOf(v Value) interface{} {
	switch v := v.(type) {
	case Integer:
		return int64(v)
	case String:
		return string(v)
	case List:
		list := make([]interface{}, len(v))
		for i, item := range v {
			list[i] = nativeOf(item)
		}
		return list
	case Dict:
		dict := make(map[string]interface{}, len(v))
		for k, item := range v {
			dict[k] = nativeOf(item)
		}
		return dict
	}

	return nil
}

type dictField struct {
	index []int
	tags  tag
}

var (
	structFieldsMu sync.RWMutex
	structFields   = map[reflect.Type]map[string]dictField{}
)

func parseStructFields(struct_ reflect.Type, index []int, each func(key string, df dictField)) {
	for i, n := 0, struct_.NumField(); i < n; i++ {
		f := struct_.Field(i)
		fieldIndex := append(index[:len(index):len(index)], i)
		tag := getTag(f.Tag)

		if tag.Ignore() {
			continue
		}

		if f.Anonymous && tag.Key() == "" && embeddedStruct(f.Type) {
			// embedded pointers are allocated on demand, which needs an exported field
			if f.Type.Kind() == reflect.Ptr && !f.IsExported() {
				continue
			}
			parseStructFields(indirectType(f.Type), fieldIndex, each)
			continue
		}

		if !f.IsExported() {
			continue
		}

		key := tag.Key()
		if key == "" {
			key = f.Name
		}

		each(key, dictField{index: fieldIndex, tags: tag})
	}
}

func getStructFieldForKey(struct_ reflect.Type, key string) (dictField, bool) {
	structFieldsMu.RLock()
	fields, ok := structFields[struct_]
	structFieldsMu.RUnlock()

	if !ok {
		fields = make(map[string]dictField)
		parseStructFields(struct_, nil, func(key string, df dictField) {
			if _, dup := fields[key]; !dup {
				fields[key] = df
			}
		})

		structFieldsMu.Lock()
		structFields[struct_] = fields
		structFieldsMu.Unlock()
	}

	f, ok := fields[key]
	return f, ok
}

func fieldByIndexAlloc(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}

	return v
}
