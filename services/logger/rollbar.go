package logsvc

import (
	"context"
	"fmt"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/user"
)

// RollbarLogger writes every entry to zap and mirrors it to Rollbar when a token is configured.
type RollbarLogger struct {
	zl *zap.SugaredLogger
}

var _ core.Logger = (*RollbarLogger)(nil)

// level pairs a zap writer with the Rollbar reporter of the same severity.
type level struct {
	zap    zapcore.Level
	write  func(*zap.SugaredLogger, string, ...interface{})
	report func(...interface{})
}

var (
	debugLevel = level{zap.DebugLevel, (*zap.SugaredLogger).Debugw, rollbar.Debug}
	infoLevel  = level{zap.InfoLevel, (*zap.SugaredLogger).Infow, rollbar.Info}
	warnLevel  = level{zap.WarnLevel, (*zap.SugaredLogger).Warnw, rollbar.Warning}
	errorLevel = level{zap.ErrorLevel, (*zap.SugaredLogger).Errorw, rollbar.Error}
	fatalLevel = level{zap.FatalLevel, (*zap.SugaredLogger).Fatalw, rollbar.Critical}
)

func NewRollbarLogger(zl *zap.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "")
	return &RollbarLogger{zl: zl.Sugar()}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Sync flushes both sinks.
func (l RollbarLogger) Sync() {
	rollbar.Wait()
	_ = l.zl.Sync()
}

// entry is one log call split into what each sink understands.
// Args may hold an error, map[string]interface{} extras and the acting user.User.
type entry struct {
	msg    string
	actor  *user.User
	report []interface{} // rollbar: msg first, then errors, extras and the person context
	kv     []interface{} // zap key-value pairs
}

func newEntry(msg string, args []interface{}) entry {
	e := entry{msg: msg, report: []interface{}{msg}, kv: make([]interface{}, 0, len(args)*2)}
	for i, arg := range args {
		switch a := arg.(type) {
		case user.User:
			e.kv = append(e.kv, "user_id", a.ID, "username", a.Username)
			if e.actor == nil {
				usr := a
				e.actor = &usr
			}
			continue
		case error:
			e.kv = append(e.kv, "error", fmt.Sprintf("%+v", a))
		case map[string]interface{}:
			for k, v := range a {
				e.kv = append(e.kv, k, v)
			}
		default:
			e.kv = append(e.kv, fmt.Sprintf("arg%d", i), a)
		}
		e.report = append(e.report, arg)
	}
	// the person travels with the report; rollbar's global person is shared by all requests
	if e.actor != nil {
		person := &rollbar.Person{Id: e.actor.ID, Username: e.actor.Username, Email: e.actor.Email}
		e.report = append(e.report, rollbar.NewPersonContext(context.Background(), person))
	}
	return e
}

func (l RollbarLogger) log(lvl level, msg string, args []interface{}) {
	e := newEntry(msg, args)
	lvl.report(e.report...)
	if lvl.zap == zap.FatalLevel {
		rollbar.Wait()
	}
	lvl.write(l.zl, e.msg, e.kv...)
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.log(debugLevel, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.log(infoLevel, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.log(warnLevel, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log(errorLevel, msg, args) }
func (l RollbarLogger) Fatal(msg string, args ...interface{}) { l.log(fatalLevel, msg, args) }
