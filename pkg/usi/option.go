package usi

import (
	"fmt"
	"strconv"
	"strings"
)

type Option interface {
	UsiName() string
	UsiString() string
	Set(value string) error
}

type IntOption struct {
	Name  string
	Min   int
	Max   int
	Value *int
}

func (o *IntOption) UsiName() string {
	return o.Name
}

func (o *IntOption) UsiString() string {
	return fmt.Sprintf("option name %v type spin default %v min %v max %v",
		o.Name, *o.Value, o.Min, o.Max)
}

func (o *IntOption) Set(s string) error {
	var v, err = strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v < o.Min || v > o.Max {
		return fmt.Errorf("option %v out of range: %v", o.Name, v)
	}
	*o.Value = v
	return nil
}

type BoolOption struct {
	Name  string
	Value *bool
}

func (o *BoolOption) UsiName() string {
	return o.Name
}

func (o *BoolOption) UsiString() string {
	return fmt.Sprintf("option name %v type check default %v", o.Name, *o.Value)
}

func (o *BoolOption) Set(s string) error {
	var v, err = strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*o.Value = v
	return nil
}

type StringOption struct {
	Name  string
	Value *string
}

func (o *StringOption) UsiName() string {
	return o.Name
}

func (o *StringOption) UsiString() string {
	var def = *o.Value
	if def == "" {
		def = "<empty>"
	}
	return fmt.Sprintf("option name %v type string default %v", o.Name, def)
}

func (o *StringOption) Set(s string) error {
	*o.Value = s
	return nil
}

// matchOptionName is case-insensitive and tolerates a missing or extra USI_
// prefix, the way GUIs tend to send fixed-semantics options.
func matchOptionName(registered, requested string) bool {
	if strings.EqualFold(registered, requested) {
		return true
	}
	var r = strings.TrimPrefix(strings.ToLower(registered), "usi_")
	var q = strings.TrimPrefix(strings.ToLower(requested), "usi_")
	return r == q
}
