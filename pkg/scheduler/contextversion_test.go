package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextVersion_Bump_CancelsOlderDerivedContexts(t *testing.T) {
	v := NewContextVersion()
	ctx, version, release := v.Derive(context.Background())
	defer release()

	assert.Equal(t, int64(0), version)
	assert.Nil(t, ctx.Err())

	v.Bump()

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestContextVersion_Release_DoesNotUnregisterSameVersionTasks(t *testing.T) {
	v := NewContextVersion()
	ctxA, _, releaseA := v.Derive(context.Background())
	defer releaseA()
	ctxB, _, releaseB := v.Derive(context.Background())
	defer releaseB()

	// Both derived under version 0; releasing one must not affect the other's
	// registration, so a later bump still cancels ctxB.
	releaseA()
	v.Bump()
	assert.ErrorIs(t, ctxB.Err(), context.Canceled)
}

func TestContextVersion_Release_DoesNotCancelFutureVersions(t *testing.T) {
	v := NewContextVersion()
	_, _, release := v.Derive(context.Background())
	release()

	v.Bump()
	ctx, _, release2 := v.Derive(context.Background())
	defer release2()

	assert.Nil(t, ctx.Err())
}

func TestContextVersion_Current_ReflectsBumps(t *testing.T) {
	v := NewContextVersion()
	assert.Equal(t, int64(0), v.Current())
	v.Bump()
	assert.Equal(t, int64(1), v.Current())
}
