package filterchain

// Backend registration. New picks the native backend; the software backend
// is only used through WithBackend("software").
import (
	_ "github.com/gogpu/filterchain/backend/native"
	_ "github.com/gogpu/filterchain/backend/software"
)
