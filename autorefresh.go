package featurereg

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/agentstation/featurereg/pkg/constants"
	"github.com/agentstation/featurereg/pkg/logging"
)

// AutoRefresher provides controls for periodic re-analysis.
type AutoRefresher interface {
	// AutoRefreshOn starts re-analysis on the configured interval
	AutoRefreshOn() error

	// AutoRefreshOff stops re-analysis
	AutoRefreshOff() error
}

// AutoRefreshOn starts periodic re-analysis.
func (c *client) AutoRefreshOn() error {
	interval := c.options.autoRefreshInterval
	if interval <= 0 {
		interval = constants.DefaultRefreshInterval
	}

	// Stop any existing loop to prevent leaking a goroutine
	if err := c.AutoRefreshOff(); err != nil {
		return err
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	c.stopCh = make(chan struct{})
	c.refreshTicker = time.NewTicker(interval)
	ctx, cancel := context.WithCancel(context.Background())
	c.refreshCancel = cancel

	go func(parentCtx context.Context, ticker *time.Ticker, stop <-chan struct{}) {
		for {
			select {
			case <-ticker.C:
				runCtx, runCancel := context.WithTimeout(parentCtx, constants.AnalysisTimeout)
				_, err := c.Analyze(runCtx)
				runCancel()

				if err != nil {
					if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
						if parentCtx.Err() != nil {
							return
						}
					}
					logging.Error().Err(err).Msg("Scheduled analysis failed")
				}
			case <-parentCtx.Done():
				return
			case <-stop:
				return
			}
		}
	}(ctx, c.refreshTicker, c.stopCh)

	return nil
}

// AutoRefreshOff stops periodic re-analysis.
func (c *client) AutoRefreshOff() error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if c.refreshTicker != nil {
		c.refreshTicker.Stop()
		c.refreshTicker = nil
	}
	if c.refreshCancel != nil {
		c.refreshCancel()
		c.refreshCancel = nil
	}
	select {
	case <-c.stopCh:
		// Already closed
	default:
		close(c.stopCh)
	}
	return nil
}
