package storagelog

import (
	"fmt"

	"go.uber.org/zap"
)

// headMsg is a distinctive part of all messages.
const headMsg = "local object storage operation"

// Write writes message about storage operation to logger.
func Write(logger *zap.Logger, fields ...zap.Field) {
	logger.Debug(headMsg, fields...)
}

// IDField returns logger's field for object id.
func IDField(id uint64) zap.Field {
	return zap.Uint64("id", id)
}

// PathField returns logger's field for the object location relative to the
// storage root.
func PathField(p fmt.Stringer) zap.Field {
	return zap.Stringer("path", p)
}

// OpField returns logger's field for operation type.
func OpField(op string) zap.Field {
	return zap.String("op", op)
}

// StorageTypeField returns logger's field for storage type.
func StorageTypeField(typ string) zap.Field {
	return zap.String("type", typ)
}
