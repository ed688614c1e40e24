// internal/wsgrouppb/wsgroup.proto
// Wire contract for the forwarding RPC plane. One service, WSGroupManager,
// with a single unary method: the master accepts a group-send from any
// producer and fans it out by unicast RPC to every live worker.
//
//	service WSGroupManager {
//	  rpc SendMessage(WSSendMessageRequest) returns (WSResponse);
//	}
//	message WSMessage { string type = 1; bytes message = 2; bytes params = 3; }
//	message WSSendMessageRequest { string group = 1; WSMessage message = 2; }
//	message WSResponse { bool ack = 1; }
//
// This file defines the three messages by hand in the pre-APIv2 protoc-gen-go
// shape (struct + protobuf tags + Reset/String/ProtoMessage): grpc-go's
// default codec recognises this legacy proto.Message surface and marshals it
// through the same wire format a fully codegen'd message would use.
package wsgrouppb

import "fmt"

// WSMessage is one group message: a handler-method name plus its payload.
type WSMessage struct {
	Type    string `protobuf:"bytes,1,opt,name=type,proto3" json:"type,omitempty"`
	Message []byte `protobuf:"bytes,2,opt,name=message,proto3" json:"message,omitempty"`
	Params  []byte `protobuf:"bytes,3,opt,name=params,proto3" json:"params,omitempty"`
}

func (m *WSMessage) Reset()         { *m = WSMessage{} }
func (m *WSMessage) String() string { return fmt.Sprintf("WSMessage{Type:%q}", m.GetType()) }
func (*WSMessage) ProtoMessage()    {}

func (m *WSMessage) GetType() string {
	if m != nil {
		return m.Type
	}
	return ""
}

func (m *WSMessage) GetMessage() []byte {
	if m != nil {
		return m.Message
	}
	return nil
}

func (m *WSMessage) GetParams() []byte {
	if m != nil {
		return m.Params
	}
	return nil
}

// WSSendMessageRequest names the target group and carries the message.
type WSSendMessageRequest struct {
	Group   string     `protobuf:"bytes,1,opt,name=group,proto3" json:"group,omitempty"`
	Message *WSMessage `protobuf:"bytes,2,opt,name=message,proto3" json:"message,omitempty"`
}

func (m *WSSendMessageRequest) Reset() { *m = WSSendMessageRequest{} }
func (m *WSSendMessageRequest) String() string {
	return fmt.Sprintf("WSSendMessageRequest{Group:%q}", m.GetGroup())
}
func (*WSSendMessageRequest) ProtoMessage() {}

func (m *WSSendMessageRequest) GetGroup() string {
	if m != nil {
		return m.Group
	}
	return ""
}

func (m *WSSendMessageRequest) GetMessage() *WSMessage {
	if m != nil {
		return m.Message
	}
	return nil
}

// WSResponse is the forwarder's acknowledgement: ack=true iff at least one
// worker delivery was attempted.
type WSResponse struct {
	Ack bool `protobuf:"varint,1,opt,name=ack,proto3" json:"ack,omitempty"`
}

func (m *WSResponse) Reset()         { *m = WSResponse{} }
func (m *WSResponse) String() string { return fmt.Sprintf("WSResponse{Ack:%t}", m.GetAck()) }
func (*WSResponse) ProtoMessage()    {}

func (m *WSResponse) GetAck() bool {
	if m != nil {
		return m.Ack
	}
	return false
}
