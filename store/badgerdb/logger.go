package badgerdb

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/tendermint/tendermint/libs/log"
)

// logger renders badger messages through the node logger.
type logger struct {
	log.Logger
}

var _ badger.Logger = logger{}

func newLogger(l log.Logger) logger {
	if l == nil {
		l = log.NewNopLogger()
	}
	return logger{Logger: l.With("module", "badger")}
}

func (l logger) Errorf(msg string, args ...interface{}) {
	l.Error(fmt.Sprintf(msg, args...))
}

func (l logger) Warningf(msg string, args ...interface{}) {
	l.Info(fmt.Sprintf(msg, args...))
}

func (l logger) Infof(msg string, args ...interface{}) {
	l.Info(fmt.Sprintf(msg, args...))
}

func (l logger) Debugf(msg string, args ...interface{}) {
	l.Debug(fmt.Sprintf(msg, args...))
}
