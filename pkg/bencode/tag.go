package bencode

import (
	"reflect"
	"slices"
	"strings"
)

func getTag(st reflect.StructTag) tag {
	return parseTag(st.Get("bencode"))
}

// tag is the parsed form of `bencode:"key,opt1,opt2"`.
type tag []string

func parseTag(tagStr string) tag {
	return strings.Split(tagStr, ",")
}

func (t tag) Ignore() bool {
	return t.Key() == "-" && len(t) == 1
}

func (t tag) Key() string {
	if len(t) == 0 {
		return ""
	}
	return t[0]
}

func (t tag) HasOpt(opt string) bool {
	if len(t) < 2 {
		return false
	}
	return slices.Contains(t[1:], opt)
}

func (t tag) OmitEmpty() bool {
	return t.HasOpt("omitempty")
}

func (t tag) IgnoreUnmarshalTypeError() bool {
	return t.HasOpt("ignore_unmarshal_type_error")
}
