package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveCommand_UpdateLog(t *testing.T) {
	spec := ResolveCommand("Get-WindowsUpdateLog -LogPath C:\\Temp\\wu.log")
	assert.Equal(t, KindUpdateLog, spec.Kind)
	assert.Equal(t, DefaultUpdateLogPath, spec.OutputPath)
}

func TestResolveCommand_EventQueryDefaults(t *testing.T) {
	spec := ResolveCommand("Get-WinEvent -LogName System")
	assert.Equal(t, KindEventQuery, spec.Kind)
	assert.Equal(t, "System", spec.LogName)
	assert.Equal(t, 100, spec.MaxEvents)
	assert.Nil(t, spec.EventIDs)
	assert.Empty(t, spec.Provider)
}

func TestResolveCommand_EventQueryFull(t *testing.T) {
	raw := "Get-WinEvent -LogName Application -MaxEvents 25 | Where-Object { $_.Id -in @(1000, 1001, 1002) -and $_.Source -like '*Windows Update*' }"
	spec := ResolveCommand(raw)

	assert.Equal(t, KindEventQuery, spec.Kind)
	assert.Equal(t, "Application", spec.LogName)
	assert.Equal(t, 25, spec.MaxEvents)
	assert.Equal(t, []int{1000, 1001, 1002}, spec.EventIDs)
	assert.Equal(t, "Windows Update", spec.Provider)
}

func TestResolveCommand_EventQueryBadMaxEvents(t *testing.T) {
	spec := ResolveCommand("Get-WinEvent -LogName System -MaxEvents lots")
	assert.Equal(t, 100, spec.MaxEvents)
}

func TestResolveCommand_Generic(t *testing.T) {
	spec := ResolveCommand("Get-Service | Where-Object Status -eq 'Stopped'")
	assert.Equal(t, KindGeneric, spec.Kind)
	assert.Equal(t, "Get-Service | Where-Object Status -eq 'Stopped'", spec.Raw)
}

func TestCommandLabel_TruncatesLongCommands(t *testing.T) {
	long := "Get-WinEvent " + strings.Repeat("x", 100)
	spec := ResolveCommand(long)

	assert.True(t, strings.HasPrefix(spec.Label, "PowerShell:"))
	assert.LessOrEqual(t, len(spec.Label), len("PowerShell:")+50)
	assert.Contains(t, spec.Label, "Get-WinEvent")
}

func TestResolveCommands_KeepsOrder(t *testing.T) {
	specs := ResolveCommands([]string{"Get-Process", "Get-WindowsUpdateLog"})
	assert.Equal(t, KindGeneric, specs[0].Kind)
	assert.Equal(t, KindUpdateLog, specs[1].Kind)
}
