// Package pb holds the wire messages of the remote analysis service. The
// types follow analysis.proto and are encoded with gogo/protobuf's
// reflection based marshaler.
package pb

import (
	"strconv"

	"github.com/gogo/protobuf/proto"
)

type Request_Kind int32

const (
	Request_ANALYZE   Request_Kind = 0
	Request_ORDER     Request_Kind = 1
	Request_KEYSTREAM Request_Kind = 2
	Request_DESCRIBE  Request_Kind = 3
)

var Request_Kind_name = map[int32]string{
	0: "ANALYZE",
	1: "ORDER",
	2: "KEYSTREAM",
	3: "DESCRIBE",
}

func (x Request_Kind) String() string {
	if s, ok := Request_Kind_name[int32(x)]; ok {
		return s
	}
	return strconv.Itoa(int(x))
}

type Response_ErrorKind int32

const (
	Response_NONE       Response_ErrorKind = 0
	Response_INVALID    Response_ErrorKind = 1
	Response_ALGEBRA    Response_ErrorKind = 2
	Response_KEY_LENGTH Response_ErrorKind = 3
	Response_IV_LENGTH  Response_ErrorKind = 4
	Response_TIMEOUT    Response_ErrorKind = 5
)

var Response_ErrorKind_name = map[int32]string{
	0: "NONE",
	1: "INVALID",
	2: "ALGEBRA",
	3: "KEY_LENGTH",
	4: "IV_LENGTH",
	5: "TIMEOUT",
}

func (x Response_ErrorKind) String() string {
	if s, ok := Response_ErrorKind_name[int32(x)]; ok {
		return s
	}
	return strconv.Itoa(int(x))
}

type Request struct {
	Id           uint64       `protobuf:"varint,1,opt,name=id,proto3" json:"id,omitempty"`
	Kind         Request_Kind `protobuf:"varint,2,opt,name=kind,proto3,enum=lfsr.Request_Kind" json:"kind,omitempty"`
	FieldOrder   uint64       `protobuf:"varint,3,opt,name=field_order,json=fieldOrder,proto3" json:"field_order,omitempty"`
	Coefficients []uint64     `protobuf:"varint,4,rep,packed,name=coefficients,proto3" json:"coefficients,omitempty"`
	Degree       int64        `protobuf:"varint,5,opt,name=degree,proto3" json:"degree,omitempty"`
	Strategy     string       `protobuf:"bytes,6,opt,name=strategy,proto3" json:"strategy,omitempty"`
	Key          []uint64     `protobuf:"varint,7,rep,packed,name=key,proto3" json:"key,omitempty"`
	Iv           []uint64     `protobuf:"varint,8,rep,packed,name=iv,proto3" json:"iv,omitempty"`
	HasIv        bool         `protobuf:"varint,9,opt,name=has_iv,json=hasIv,proto3" json:"has_iv,omitempty"`
	Length       uint64       `protobuf:"varint,10,opt,name=length,proto3" json:"length,omitempty"`
	TimeoutMs    uint64       `protobuf:"varint,11,opt,name=timeout_ms,json=timeoutMs,proto3" json:"timeout_ms,omitempty"`
}

func (m *Request) Reset()         { *m = Request{} }
func (m *Request) String() string { return proto.CompactTextString(m) }
func (*Request) ProtoMessage()    {}

type Factor struct {
	Coefficients []uint64 `protobuf:"varint,1,rep,packed,name=coefficients,proto3" json:"coefficients,omitempty"`
	Multiplicity uint32   `protobuf:"varint,2,opt,name=multiplicity,proto3" json:"multiplicity,omitempty"`
	Order        string   `protobuf:"bytes,3,opt,name=order,proto3" json:"order,omitempty"`
	Primitive    bool     `protobuf:"varint,4,opt,name=primitive,proto3" json:"primitive,omitempty"`
}

func (m *Factor) Reset()         { *m = Factor{} }
func (m *Factor) String() string { return proto.CompactTextString(m) }
func (*Factor) ProtoMessage()    {}

type OrderResult struct {
	FieldOrder           uint64    `protobuf:"varint,1,opt,name=field_order,json=fieldOrder,proto3" json:"field_order,omitempty"`
	Coefficients         []uint64  `protobuf:"varint,2,rep,packed,name=coefficients,proto3" json:"coefficients,omitempty"`
	Irreducible          bool      `protobuf:"varint,3,opt,name=irreducible,proto3" json:"irreducible,omitempty"`
	Factors              []*Factor `protobuf:"bytes,4,rep,name=factors,proto3" json:"factors,omitempty"`
	PolynomialOrder      string    `protobuf:"bytes,5,opt,name=polynomial_order,json=polynomialOrder,proto3" json:"polynomial_order,omitempty"`
	CombinedOrder        string    `protobuf:"bytes,6,opt,name=combined_order,json=combinedOrder,proto3" json:"combined_order,omitempty"`
	Primitive            bool      `protobuf:"varint,7,opt,name=primitive,proto3" json:"primitive,omitempty"`
	TheoreticalMaxPeriod string    `protobuf:"bytes,8,opt,name=theoretical_max_period,json=theoreticalMaxPeriod,proto3" json:"theoretical_max_period,omitempty"`
}

func (m *OrderResult) Reset()         { *m = OrderResult{} }
func (m *OrderResult) String() string { return proto.CompactTextString(m) }
func (*OrderResult) ProtoMessage()    {}

type Response struct {
	Id          uint64             `protobuf:"varint,1,opt,name=id,proto3" json:"id,omitempty"`
	ErrorKind   Response_ErrorKind `protobuf:"varint,2,opt,name=error_kind,json=errorKind,proto3,enum=lfsr.Response_ErrorKind" json:"error_kind,omitempty"`
	Error       string             `protobuf:"bytes,3,opt,name=error,proto3" json:"error,omitempty"`
	Order       *OrderResult       `protobuf:"bytes,4,opt,name=order,proto3" json:"order,omitempty"`
	Keystream   []uint64           `protobuf:"varint,5,rep,packed,name=keystream,proto3" json:"keystream,omitempty"`
	Description string             `protobuf:"bytes,6,opt,name=description,proto3" json:"description,omitempty"`
}

func (m *Response) Reset()         { *m = Response{} }
func (m *Response) String() string { return proto.CompactTextString(m) }
func (*Response) ProtoMessage()    {}

func init() {
	proto.RegisterEnum("lfsr.Request_Kind", Request_Kind_name, map[string]int32{
		"ANALYZE": 0, "ORDER": 1, "KEYSTREAM": 2, "DESCRIBE": 3,
	})
	proto.RegisterEnum("lfsr.Response_ErrorKind", Response_ErrorKind_name, map[string]int32{
		"NONE": 0, "INVALID": 1, "ALGEBRA": 2, "KEY_LENGTH": 3, "IV_LENGTH": 4, "TIMEOUT": 5,
	})
	proto.RegisterType((*Request)(nil), "lfsr.Request")
	proto.RegisterType((*Factor)(nil), "lfsr.Factor")
	proto.RegisterType((*OrderResult)(nil), "lfsr.OrderResult")
	proto.RegisterType((*Response)(nil), "lfsr.Response")
}
