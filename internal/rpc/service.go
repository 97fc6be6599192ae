// Package rpc serves the cipher registry and key finder over gRPC.
//
// The service has no generated stubs. Requests and responses are
// google.protobuf.Struct values and binary payloads travel as lowercase hex.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "xorcist.v1.Cipher"

const (
	methodExecute        = "/" + ServiceName + "/Execute"
	methodCrack          = "/" + ServiceName + "/Crack"
	methodListOperations = "/" + ServiceName + "/ListOperations"
	methodIdentify       = "/" + ServiceName + "/Identify"
)

// CipherServer is the server API for the xorcist.v1.Cipher service.
type CipherServer interface {
	// Execute runs a pipeline or a named recipe over input_hex.
	Execute(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Crack recovers a single-byte XOR key from ciphertext_hex, or picks the
	// most plausible entry of lines.
	Crack(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ListOperations describes every registered operation.
	ListOperations(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// Identify guesses the encoding of input_hex and decodes it each
	// plausible way.
	Identify(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterCipherServer attaches srv to s.
func RegisterCipherServer(s grpc.ServiceRegistrar, srv CipherServer) {
	s.RegisterService(&cipherServiceDesc, srv)
}

var cipherServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CipherServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Execute",
			Handler: unaryHandler(methodExecute, func(s CipherServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.Execute(ctx, in)
			}),
		},
		{
			MethodName: "Crack",
			Handler: unaryHandler(methodCrack, func(s CipherServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.Crack(ctx, in)
			}),
		},
		{
			MethodName: "ListOperations",
			Handler: unaryHandler(methodListOperations, func(s CipherServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.ListOperations(ctx, in)
			}),
		},
		{
			MethodName: "Identify",
			Handler: unaryHandler(methodIdentify, func(s CipherServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
				return s.Identify(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "xorcist/v1/cipher.proto",
}

type unaryCall func(CipherServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CipherServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CipherServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
