package doctor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vlados/unique-urls/internal/config"
	"github.com/vlados/unique-urls/internal/models"
)

func TestMonitor_TracksProblemDelta(t *testing.T) {
	env := newDoctorEnv(t, config.Default())
	monitor := NewMonitor(env.doctor, time.Minute, zap.NewNop())

	monitor.runOnce()
	assert.Empty(t, monitor.known)

	// Introduce a problem: a deferred page with no URLs.
	_, err := env.pageService.CreatePage(models.Translations{"en": "uncovered"}, false)
	require.NoError(t, err)

	monitor.runOnce()
	assert.Len(t, monitor.known, 1)

	// Fix it and the known set drains again.
	pages, err := env.pageService.Source().All()
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.NoError(t, env.urlService.Generate(pages[0]))

	monitor.runOnce()
	assert.Empty(t, monitor.known)
}
