/*
 * Copyright 2025 the Y Monitor Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package snmp

import (
	"fmt"
	"net"
	"strconv"

	"github.com/gosnmp/gosnmp"
)

// Kind tags the varbind value sum type.
type Kind string

const (
	KindInteger        Kind = "integer"
	KindCounter64      Kind = "counter64"
	KindOctetString    Kind = "octet_string"
	KindOID            Kind = "oid"
	KindIPAddress      Kind = "ip_address"
	KindNull           Kind = "null"
	KindNoSuchObject   Kind = "no_such_object"
	KindNoSuchInstance Kind = "no_such_instance"
	KindEndOfMibView   Kind = "end_of_mib_view"
)

// Value is the normalized varbind value. Exactly one payload field is
// meaningful for a given Kind: Int for integer, Uint for counter64,
// Str for octet_string/oid/ip_address.
type Value struct {
	Kind Kind   `json:"kind"`
	Int  int64  `json:"int,omitempty"`
	Uint uint64 `json:"uint,omitempty"`
	Str  string `json:"str,omitempty"`
}

// VarBind pairs an OID with its normalized value. Raw keeps the wire
// value for call sites that need the undecoded form.
type VarBind struct {
	OID   string      `json:"oid"`
	Value Value       `json:"value"`
	Raw   interface{} `json:"-"`
}

// FromPDU normalizes a gosnmp PDU into the tagged value sum.
// integer/counter32/gauge32/timeticks/unsigned32 collapse losslessly into
// a 64-bit signed integer; counter64 keeps full unsigned range.
func FromPDU(pdu gosnmp.SnmpPDU) Value {
	switch pdu.Type {
	case gosnmp.Integer, gosnmp.Counter32, gosnmp.Gauge32, gosnmp.TimeTicks, gosnmp.Uinteger32:
		return Value{Kind: KindInteger, Int: gosnmp.ToBigInt(pdu.Value).Int64()}
	case gosnmp.Counter64:
		return Value{Kind: KindCounter64, Uint: gosnmp.ToBigInt(pdu.Value).Uint64()}
	case gosnmp.OctetString:
		if b, ok := pdu.Value.([]byte); ok {
			return Value{Kind: KindOctetString, Str: string(b)}
		}

		return Value{Kind: KindOctetString, Str: fmt.Sprintf("%v", pdu.Value)}
	case gosnmp.ObjectIdentifier:
		if s, ok := pdu.Value.(string); ok {
			return Value{Kind: KindOID, Str: s}
		}

		return Value{Kind: KindOID, Str: fmt.Sprintf("%v", pdu.Value)}
	case gosnmp.IPAddress:
		switch v := pdu.Value.(type) {
		case string:
			return Value{Kind: KindIPAddress, Str: v}
		case []byte:
			if len(v) == net.IPv4len {
				return Value{Kind: KindIPAddress, Str: net.IP(v).String()}
			}
		}

		return Value{Kind: KindIPAddress}
	case gosnmp.NoSuchObject:
		return Value{Kind: KindNoSuchObject}
	case gosnmp.NoSuchInstance:
		return Value{Kind: KindNoSuchInstance}
	case gosnmp.EndOfMibView:
		return Value{Kind: KindEndOfMibView}
	default:
		return Value{Kind: KindNull}
	}
}

// AsInt64 returns the signed integer view of the value.
func (v Value) AsInt64() (int64, bool) {
	switch v.Kind {
	case KindInteger:
		return v.Int, true
	case KindCounter64:
		return int64(v.Uint), true
	default:
		return 0, false
	}
}

// AsUint64 returns the unsigned counter view of the value. Negative
// integers do not convert.
func (v Value) AsUint64() (uint64, bool) {
	switch v.Kind {
	case KindCounter64:
		return v.Uint, true
	case KindInteger:
		if v.Int < 0 {
			return 0, false
		}

		return uint64(v.Int), true
	default:
		return 0, false
	}
}

// AsString renders any present value as a string; missing values
// (null, noSuchObject and friends) return false.
func (v Value) AsString() (string, bool) {
	switch v.Kind {
	case KindOctetString, KindOID, KindIPAddress:
		return v.Str, true
	case KindInteger:
		return strconv.FormatInt(v.Int, 10), true
	case KindCounter64:
		return strconv.FormatUint(v.Uint, 10), true
	default:
		return "", false
	}
}

// Present reports whether the varbind carried an actual value.
func (v Value) Present() bool {
	switch v.Kind {
	case KindNull, KindNoSuchObject, KindNoSuchInstance, KindEndOfMibView:
		return false
	default:
		return true
	}
}
