// Package sstv implements a streaming decoder for PD-family Slow-Scan
// Television transmissions: polyphase resampling, a band-pass FIR, a
// DC-blocker and AGC, a Hilbert-quadrature frequency estimator, a VIS
// header decoder, and the PD line-reconstruction state machine,
// orchestrated by Pipeline.
package sstv
