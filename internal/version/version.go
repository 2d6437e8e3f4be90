package version

import (
	"fmt"
)

// Version is overridden at build time with
// -ldflags "-X github.com/al002/zbencode/internal/version.Version=v1.2.3".
var Version = "unknown"

var (
	DefaultAgent string
)

func init() {
	const (
		namespace   = "al002"
		packageName = "zbencode"
	)

	DefaultAgent = fmt.Sprintf(
		"%v-%v/%v",
		namespace,
		packageName,
		Version,
	)
}
