// Copyright 2024 The ValueScript Authors
// This file is part of ValueScript.
//
// ValueScript is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ValueScript is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with ValueScript. If not, see <http://www.gnu.org/licenses/>.

package value

// arrayIterator and stringIterator implement value.Iterable directly in
// this package (rather than in builtins) because they are produced by the
// language's built-in iteration protocol itself, not by a named built-in
// object: arrays iterate by element, strings iterate by Unicode code
// point.

type arrayIterator struct {
	elems []Value
	pos   int
}

var _ Iterable = (*arrayIterator)(nil)

func (it *arrayIterator) TypeOf() string    { return "object" }
func (it *arrayIterator) ClassName() string { return "Array Iterator" }
func (it *arrayIterator) Pretty() string    { return "[Array Iterator]" }
func (it *arrayIterator) Codify() string    { return "[Array Iterator]" }

func (it *arrayIterator) Sub(key Value) (Value, error) {
	if key.tag == TagSymbol && key.sym == SymbolIterator {
		return DynamicVal(it), nil
	}
	return Undefined(), nil
}

func (it *arrayIterator) SubMov(key, val Value) error { return nil }

func (it *arrayIterator) IterNext() (IterResult, error) {
	if it.pos >= len(it.elems) {
		return IterResult{Value: Undefined(), Done: true}, nil
	}
	v := it.elems[it.pos]
	it.pos++
	if v.IsVoid() {
		v = Undefined()
	}
	return IterResult{Value: v, Done: false}, nil
}

type stringIterator struct {
	runes []rune
	pos   int
}

var _ Iterable = (*stringIterator)(nil)

func (it *stringIterator) TypeOf() string    { return "object" }
func (it *stringIterator) ClassName() string { return "String Iterator" }
func (it *stringIterator) Pretty() string    { return "[String Iterator]" }
func (it *stringIterator) Codify() string    { return "[String Iterator]" }

func (it *stringIterator) Sub(key Value) (Value, error) {
	if key.tag == TagSymbol && key.sym == SymbolIterator {
		return DynamicVal(it), nil
	}
	return Undefined(), nil
}

func (it *stringIterator) SubMov(key, val Value) error { return nil }

func (it *stringIterator) IterNext() (IterResult, error) {
	if it.pos >= len(it.runes) {
		return IterResult{Value: Undefined(), Done: true}, nil
	}
	v := String(string(it.runes[it.pos]))
	it.pos++
	return IterResult{Value: v, Done: false}, nil
}

// GetIterator implements `obj[Symbol.iterator]()`: returns an Iterable ready
// for `next()` calls, or an error if v is not iterable. Plain objects do
// not iterate by default.
func GetIterator(v Value) (Iterable, error) {
	v, err := Resolve(v)
	if err != nil {
		return nil, err
	}
	switch v.tag {
	case TagArray:
		elems := make([]Value, len(v.arr.elems))
		copy(elems, v.arr.elems)
		return &arrayIterator{elems: elems}, nil
	case TagString:
		return &stringIterator{runes: []rune(v.str)}, nil
	case TagDynamic:
		if it, ok := v.dyn.(Iterable); ok {
			return it, nil
		}
		iterFn, err := v.dyn.Sub(SymbolVal(SymbolIterator))
		if err == nil && iterFn.tag == TagDynamic {
			if it, ok := iterFn.dyn.(Iterable); ok {
				return it, nil
			}
		}
		return nil, typeErr("value is not iterable")
	default:
		return nil, typeErr("value is not iterable")
	}
}

// Spread collects every value out of an iterable into a slice, used by the
// VM's apply instruction (call-argument spreads) and by Array.from.
func Spread(v Value) ([]Value, error) {
	resolved, err := Resolve(v)
	if err != nil {
		return nil, err
	}
	if resolved.tag == TagObject {
		// Object spread copies own enumerable string-keyed properties; it is
		// not iterator-protocol based.
		out := make([]Value, 0, len(resolved.obj.str))
		for k, val := range resolved.obj.str {
			out = append(out, String(k), val)
		}
		return out, nil
	}
	it, err := GetIterator(resolved)
	if err != nil {
		return nil, err
	}
	var out []Value
	for {
		res, err := it.IterNext()
		if err != nil {
			return nil, err
		}
		if res.Done {
			break
		}
		out = append(out, res.Value)
	}
	return out, nil
}
