// Package rpc declares the gRPC services of the eyewear catalog. Messages
// are google.protobuf.Struct documents shaped like the HTTP payloads, so the
// services need no generated stubs.
package rpc

import (
	"context"
	"encoding/json"

	"github.com/fekuna/omnipos-eyewear-service/internal/validation"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// UnaryFunc is the shape of every method.
type UnaryFunc func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unary(fullMethod string, bind func(srv any) UnaryFunc) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		fn := bind(srv)
		if interceptor == nil {
			return fn(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return fn(ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func method(service, name string, bind func(srv any) UnaryFunc) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler:    unary("/"+service+"/"+name, bind),
	}
}

// Decode copies a request document into dst through its JSON form.
func Decode(in *structpb.Struct, dst any) error {
	b, err := protojson.Marshal(in)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

// Encode turns any JSON-marshalable value into a response document.
func Encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// ViolationStatus reports violations as InvalidArgument with the full list
// attached as a detail.
func ViolationStatus(v validation.Violations) error {
	st := status.New(codes.InvalidArgument, v.Error())
	detail, err := Encode(map[string]any{"errors": v})
	if err != nil {
		return st.Err()
	}
	if withDetail, err := st.WithDetails(detail); err == nil {
		return withDetail.Err()
	}
	return st.Err()
}
