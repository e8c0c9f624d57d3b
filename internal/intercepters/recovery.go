package intercepters

import (
	"runtime/debug"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RecoveryOptions turns a handler panic into codes.Internal and logs the
// stack. The panic value is not sent to the client.
func RecoveryOptions(l *zap.Logger) []recovery.Option {
	return []recovery.Option{
		recovery.WithRecoveryHandler(func(p any) error {
			l.Error("gRPC handler panic",
				zap.Any("panic", p),
				zap.ByteString("stack", debug.Stack()),
			)
			return status.Error(codes.Internal, "internal error")
		}),
	}
}
