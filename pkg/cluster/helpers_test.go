package cluster

import (
	"time"

	"github.com/agentstation/utc"

	ft "github.com/agentstation/featurereg/pkg/features/featurestest"
)

func utcAt(offset time.Duration) *utc.Time {
	t := utc.New(ft.Epoch.Add(offset))
	return &t
}
