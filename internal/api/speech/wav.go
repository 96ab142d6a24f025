package speech

import (
	"bytes"
	"encoding/binary"
)

// The TTS model returns raw little-endian PCM; Telegram needs a container.
const (
	pcmSampleRate    = 24000
	pcmBitsPerSample = 16
	pcmChannels      = 1
)

// wavFromPCM wraps raw PCM samples in a minimal RIFF/WAVE header.
func wavFromPCM(pcm []byte) []byte {
	var buf bytes.Buffer

	byteRate := pcmSampleRate * pcmChannels * pcmBitsPerSample / 8
	blockAlign := pcmChannels * pcmBitsPerSample / 8

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))               // fmt chunk size
	binary.Write(&buf, binary.LittleEndian, uint16(1))                // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(pcmChannels))
	binary.Write(&buf, binary.LittleEndian, uint32(pcmSampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(pcmBitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}
