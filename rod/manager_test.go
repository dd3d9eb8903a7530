//go:build integration

package rod_test

import (
	"testing"

	"github.com/fwojciec/sitecrawl"
	"github.com/fwojciec/sitecrawl/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserManager_RecyclesBrowserAfterMaxPages(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(3)
	require.NoError(t, err)
	defer manager.Close()

	firstBrowser, release, err := manager.Acquire()
	require.NoError(t, err)
	release()
	for range 2 {
		_, release, err := manager.Acquire()
		require.NoError(t, err)
		release()
	}

	secondBrowser, release, err := manager.Acquire()
	require.NoError(t, err)
	defer release()

	assert.NotSame(t, firstBrowser, secondBrowser)
}

func TestBrowserManager_DoesNotRecycleBeforeMaxPages(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(5)
	require.NoError(t, err)
	defer manager.Close()

	firstBrowser, release, err := manager.Acquire()
	require.NoError(t, err)
	release()
	_, release, err = manager.Acquire()
	require.NoError(t, err)
	release()

	sameBrowser, release, err := manager.Acquire()
	require.NoError(t, err)
	defer release()

	assert.Same(t, firstBrowser, sameBrowser)
}

func TestBrowserManager_DoesNotRecycleWhilePagesOpen(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(1)
	require.NoError(t, err)
	defer manager.Close()

	firstBrowser, releaseFirst, err := manager.Acquire()
	require.NoError(t, err)
	_, release, err := manager.Acquire()
	require.NoError(t, err)
	release()

	sameBrowser, release, err := manager.Acquire()
	require.NoError(t, err)
	release()
	releaseFirst()

	assert.Same(t, firstBrowser, sameBrowser)
}

func TestBrowserManager_AcquireAfterClose(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager(0)
	require.NoError(t, err)
	require.NoError(t, manager.Close())
	require.NoError(t, manager.Close())

	_, _, err = manager.Acquire()

	require.Error(t, err)
	assert.Equal(t, sitecrawl.EINVALID, sitecrawl.ErrorCode(err))
}
