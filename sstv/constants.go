package sstv

/*
 * SSTV protocol constants
 * Ported from original_source/include/sstv_types.h
 *
 * Copyright (c) 2026, UberSDR project
 */

// Core tone frequencies, Hz. Bit-exact; required by the protocol.
const (
	SyncFreq  = 1200.0
	BlackFreq = 1500.0
	WhiteFreq = 2300.0
	FreqRange = WhiteFreq - BlackFreq

	VisLogic0Freq      = 1300.0
	VisLogic1Freq      = 1100.0
	VisStartStopFreq   = 1200.0
	VisLeaderBurstFreq = 1900.0
	VisBreakFreq       = 1200.0

	VisLeaderBurstDurationMs = 300.0
	VisBreakDurationMs       = 10.0
	VisBitDurationMs         = 30.0

	defaultVisToleranceHz = 60.0
	defaultVisMaxErrorMs  = 15.0
	visMedianWindow       = 9
)

// InternalSampleRate is the fixed rate every DSP stage operates at.
const InternalSampleRate = 11025.0

// preambleTone is one (frequency, duration) step of the VIS preamble.
type preambleTone struct {
	freqHz     float64
	durationMs float64
}

// defaultPreamble is the eight-tone sequence that arms the VIS state
// machine, in order.
var defaultPreamble = []preambleTone{
	{1900, 100},
	{1500, 100},
	{1900, 100},
	{1500, 100},
	{2300, 100},
	{1500, 100},
	{2300, 100},
	{1500, 100},
}
