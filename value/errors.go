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

import (
	"fmt"

	"github.com/go-stack/stack"
)

// ErrorKind classifies a thrown error value.
type ErrorKind uint8

const (
	ErrorGeneric ErrorKind = iota
	ErrorType
	ErrorRange
	ErrorInternal
)

func (k ErrorKind) Name() string {
	switch k {
	case ErrorType:
		return "TypeError"
	case ErrorRange:
		return "RangeError"
	case ErrorInternal:
		return "InternalError"
	default:
		return "Error"
	}
}

// ErrorObject is the Dynamic-backed native error instance every thrown
// runtime error uses. It satisfies value.Dynamic so it behaves like any
// other object to `.message`, `.name`, `instanceof`, and pretty-printing,
// while being constructible from Go code without going through bytecode.
type ErrorObject struct {
	Kind    ErrorKind
	Message string
	// Trace is populated only for InternalError: it records where an
	// invariant violation originated so a host printing an uncaught
	// InternalError can point at the bug.
	Trace string
}

var _ Dynamic = (*ErrorObject)(nil)

// NewError constructs a thrown Error/TypeError/RangeError/InternalError
// value. InternalError additionally captures the call stack at the point of
// construction (go-stack/stack), since it indicates a bug in this runtime
// worth full diagnostic context.
func NewError(kind ErrorKind, format string, args ...interface{}) Value {
	msg := fmt.Sprintf(format, args...)
	obj := &ErrorObject{Kind: kind, Message: msg}
	if kind == ErrorInternal {
		obj.Trace = fmt.Sprintf("%+v", stack.Trace().TrimRuntime())
	}
	return DynamicVal(obj)
}

func TypeError(format string, args ...interface{}) Value {
	return NewError(ErrorType, format, args...)
}

func RangeError(format string, args ...interface{}) Value {
	return NewError(ErrorRange, format, args...)
}

func InternalError(format string, args ...interface{}) Value {
	return NewError(ErrorInternal, format, args...)
}

func (e *ErrorObject) TypeOf() string    { return "object" }
func (e *ErrorObject) ClassName() string { return e.Kind.Name() }

func (e *ErrorObject) Sub(key Value) (Value, error) {
	if key.tag != TagString {
		return Undefined(), nil
	}
	switch key.str {
	case "message":
		return String(e.Message), nil
	case "name":
		return String(e.Kind.Name()), nil
	case "stack":
		if e.Trace == "" {
			return String(e.Kind.Name() + ": " + e.Message), nil
		}
		return String(e.Kind.Name() + ": " + e.Message + "\n" + e.Trace), nil
	}
	return Undefined(), nil
}

func (e *ErrorObject) SubMov(key, val Value) error {
	if key.tag != TagString {
		return fmt.Errorf("cannot assign non-string key on error object")
	}
	switch key.str {
	case "message":
		e.Message = val.str
		return nil
	case "name":
		return nil // error kind names are not rewritable
	}
	return nil
}

func (e *ErrorObject) Pretty() string {
	return fmt.Sprintf("%s: %s", e.Kind.Name(), e.Message)
}

func (e *ErrorObject) Codify() string {
	return fmt.Sprintf("new %s(%q)", e.Kind.Name(), e.Message)
}

// IsError reports whether v is a runtime error value (thrown or not).
func IsError(v Value) bool {
	if v.tag != TagDynamic {
		return false
	}
	_, ok := v.dyn.(*ErrorObject)
	return ok
}

// ErrorKindOf returns the kind of a runtime error value, for the Error-family
// constructors' instanceof support (builtins' HasInstance implementations).
func ErrorKindOf(v Value) (ErrorKind, bool) {
	if v.tag != TagDynamic {
		return 0, false
	}
	eo, ok := v.dyn.(*ErrorObject)
	if !ok {
		return 0, false
	}
	return eo.Kind, true
}
