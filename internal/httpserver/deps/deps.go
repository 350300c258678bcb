package deps

import (
	"time"

	"github.com/bucketbot/golink/internal/logger"
	"github.com/bucketbot/golink/internal/resolver"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	Resolver       *resolver.Resolver // shared resolution engine
	RefreshTrigger chan struct{}      // channel to trigger a manual directory refresh
}
