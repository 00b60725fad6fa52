package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDependency struct {
	name      string
	dependsOn []string
	failures  int
	starts    int
	log       *[]string
}

func (f *fakeDependency) GetName() string     { return f.name }
func (f *fakeDependency) DependsOn() []string { return f.dependsOn }

func (f *fakeDependency) Start(context.Context) error {
	f.starts++
	if f.failures > 0 {
		f.failures--
		return errors.New(f.name + " unavailable")
	}
	*f.log = append(*f.log, "start:"+f.name)
	return nil
}

func (f *fakeDependency) Stop(context.Context) error {
	*f.log = append(*f.log, "stop:"+f.name)
	return nil
}

func newTestStartup(maxAttempts int) *Startup {
	s := NewStartup(ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {}), maxAttempts)
	s.backoffUnit = time.Millisecond
	return s
}

func TestStartHonorsDependsOn(t *testing.T) {
	var log []string
	s := newTestStartup(1)
	s.AddDependency(&fakeDependency{name: "migrations", dependsOn: []string{"database"}, log: &log})
	s.AddDependency(&fakeDependency{name: "database", log: &log})
	s.AddDependency(&fakeDependency{name: "redis", log: &log})

	require.NoError(t, s.Start(context.Background()))

	assert.Equal(t, []string{"start:database", "start:migrations", "start:redis"}, log)
	assert.Equal(t, StartupStatusStarted, s.Status("migrations"))
}

func TestStartRetriesFailedDependency(t *testing.T) {
	var log []string
	db := &fakeDependency{name: "database", failures: 2, log: &log}
	s := newTestStartup(3)
	s.AddDependency(db)

	require.NoError(t, s.Start(context.Background()))

	assert.Equal(t, 3, db.starts)
	assert.Equal(t, StartupStatusStarted, s.Status("database"))
}

func TestStartGivesUp(t *testing.T) {
	var log []string
	db := &fakeDependency{name: "database", failures: 5, log: &log}
	s := newTestStartup(2)
	s.AddDependency(db)

	err := s.Start(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Contains(t, err.Error(), "database unavailable")
	assert.Equal(t, StartupStatusFailed, s.Status("database"))
}

func TestStartDoesNotRestartStartedDependencies(t *testing.T) {
	var log []string
	db := &fakeDependency{name: "database", log: &log}
	cache := &fakeDependency{name: "redis", failures: 1, log: &log}
	s := newTestStartup(2)
	s.AddDependency(db)
	s.AddDependency(cache)

	require.NoError(t, s.Start(context.Background()))

	assert.Equal(t, 1, db.starts)
	assert.Equal(t, 2, cache.starts)
}

func TestStartUnknownDependency(t *testing.T) {
	var log []string
	s := newTestStartup(1)
	s.AddDependency(&fakeDependency{name: "migrations", dependsOn: []string{"database"}, log: &log})

	assert.Error(t, s.Start(context.Background()))
}

func TestStopReversesStartOrder(t *testing.T) {
	var log []string
	s := newTestStartup(1)
	s.AddDependency(&fakeDependency{name: "database", log: &log})
	s.AddDependency(&fakeDependency{name: "migrations", dependsOn: []string{"database"}, log: &log})
	s.AddDependency(&fakeDependency{name: "kafka", log: &log})
	require.NoError(t, s.Start(context.Background()))
	log = nil

	require.NoError(t, s.Stop(context.Background()))

	assert.Equal(t, []string{"stop:kafka", "stop:migrations", "stop:database"}, log)
	assert.Equal(t, StartupStatusStopped, s.Status("database"))
}

func TestStopSkipsDependenciesThatNeverStarted(t *testing.T) {
	var log []string
	s := newTestStartup(1)
	s.AddDependency(&fakeDependency{name: "database", failures: 1, log: &log})
	require.Error(t, s.Start(context.Background()))

	require.NoError(t, s.Stop(context.Background()))
	assert.Empty(t, log)
}
