package status

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogReportAndLast(t *testing.T) {
	l := NewLog(4)
	require.True(t, l.Empty())
	_, ok := l.Last()
	require.False(t, ok)
	assert.Equal(t, OK, l.LastCode())

	got := l.Report(NullMemory, "chunk.resize")
	assert.Equal(t, NullMemory, got, "Report returns its code")

	e, ok := l.Last()
	require.True(t, ok)
	assert.Equal(t, Entry{Code: NullMemory, Origin: "chunk.resize"}, e)
	assert.Equal(t, 1, l.Len())
	assert.True(t, l.Contains(NullMemory))
	assert.False(t, l.Contains(NoMemory))
}

func TestLogEvictsOldest(t *testing.T) {
	l := NewLog(3)
	l.Report(ZeroSize, "a")
	l.Report(NoMemory, "b")
	l.Report(NullMemory, "c")
	l.Report(UnknownFault, "d")

	require.Equal(t, 3, l.Len())
	entries := l.Entries()
	assert.Equal(t, []Entry{
		{NoMemory, "b"},
		{NullMemory, "c"},
		{UnknownFault, "d"},
	}, entries)
	assert.False(t, l.Contains(ZeroSize), "oldest entry should be evicted")
	assert.Equal(t, UnknownFault, l.LastCode())
}

func TestLogCapacityDefault(t *testing.T) {
	l := NewLog(0)
	for i := 0; i < Capacity+5; i++ {
		l.Report(Code(i%int(UnknownFault)), fmt.Sprintf("site%d", i))
	}
	assert.Equal(t, Capacity, l.Len())
	assert.Equal(t, "site5", l.Entries()[0].Origin)
}

func TestLogClear(t *testing.T) {
	l := NewLog(2)
	l.Report(NoMemory, "x")
	l.Report(NoMemory, "y")
	l.Report(NoMemory, "z")
	l.Clear()
	assert.True(t, l.Empty())
	assert.Empty(t, l.Entries())

	l.Report(ZeroSize, "after")
	assert.Equal(t, []Entry{{ZeroSize, "after"}}, l.Entries())
}

func TestDefaultLog(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	require.True(t, Empty())
	Report(FragmentedMemory, "alloc.realloc")
	assert.Same(t, Default(), std)
	assert.Equal(t, FragmentedMemory, LastCode())
	assert.True(t, Contains(FragmentedMemory))
	e, ok := Last()
	require.True(t, ok)
	assert.Equal(t, "alloc.realloc", e.Origin)
	assert.Len(t, Entries(), 1)
}

func TestCodeCategories(t *testing.T) {
	tests := []struct {
		code Code
		want Category
	}{
		{OK, CategoryNone},
		{UnknownRelationship, CategoryMisuse},
		{NullMemory, CategoryMisuse},
		{NoOwningChunk, CategoryMisuse},
		{SizeTooLarge, CategoryMisuse},
		{ZeroCapacity, CategoryExhaustion},
		{NoMemory, CategoryExhaustion},
		{FragmentedMemory, CategoryExhaustion},
		{UnknownFault, CategoryFault},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.Category())
		})
	}
}

func TestCodeAsError(t *testing.T) {
	err := fmt.Errorf("realloc: %w", FragmentedMemory)
	assert.True(t, errors.Is(err, FragmentedMemory))
	assert.Equal(t, "realloc: vm: FRAGMENTED_MEMORY", err.Error())
	assert.Equal(t, "UNKNOWN_FAULT", Code(200).String())
}
