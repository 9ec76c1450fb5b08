package auth

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const (
	MetadataVendorID = "x-vendor-id"
	MetadataUserID   = "x-user-id"
	HeaderVendorID   = "X-Vendor-ID"
	HeaderUserID     = "X-User-ID"
)

// Identity is the caller as forwarded by the gateway, which authenticates.
type Identity struct {
	VendorID string
	UserID   string
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func GetIdentity(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey{}).(Identity); ok {
		return id
	}

	// Fallback to metadata
	var id Identity
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		id.VendorID = first(md.Get(MetadataVendorID))
		id.UserID = first(md.Get(MetadataUserID))
	}
	return id
}

func GetVendorID(ctx context.Context) string {
	return GetIdentity(ctx).VendorID
}

func GetUserID(ctx context.Context) string {
	return GetIdentity(ctx).UserID
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}

// UnaryServerInterceptor moves the gateway metadata into the context.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		return handler(WithIdentity(ctx, GetIdentity(ctx)), req)
	}
}

// Middleware does the same for the HTTP API.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := Identity{
			VendorID: strings.TrimSpace(c.GetHeader(HeaderVendorID)),
			UserID:   strings.TrimSpace(c.GetHeader(HeaderUserID)),
		}
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}
