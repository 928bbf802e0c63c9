package journal

import (
	"strings"

	"luxsync/internal/log"
)

// badgerLogger routes badger's internal logging through the application
// logger, demoting its chatty info output to debug.
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...any)   { log.Errorf("Journal: "+strings.TrimSpace(f), v...) }
func (badgerLogger) Warningf(f string, v ...any) { log.Warnf("Journal: "+strings.TrimSpace(f), v...) }
func (badgerLogger) Infof(f string, v ...any)    { log.Debugf("Journal: "+strings.TrimSpace(f), v...) }
func (badgerLogger) Debugf(f string, v ...any)   { log.Debugf("Journal: "+strings.TrimSpace(f), v...) }
