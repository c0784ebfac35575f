// Package audio turns uploaded files into mono waveforms at the analysis
// sample rate. PCM WAV files are decoded in-process; everything else is
// converted through ffmpeg first.
package audio
