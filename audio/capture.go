package audio

import (
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

// Device представляет аудио устройство захвата
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Capture управляет записью с микрофона для регистрации чтецов
type Capture struct {
	ctx      *malgo.AllocatedContext
	device   *malgo.Device
	deviceID *malgo.DeviceID

	mu      sync.Mutex
	running bool
}

// NewCapture инициализирует miniaudio контекст
func NewCapture() (*Capture, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init audio context: %w", err)
	}
	return &Capture{ctx: ctx}, nil
}

// ListDevices возвращает список устройств захвата
func (c *Capture) ListDevices() ([]Device, error) {
	infos, err := c.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate capture devices: %w", err)
	}

	devices := make([]Device, 0, len(infos))
	for _, dev := range infos {
		devices = append(devices, Device{
			ID:   deviceIDToString(dev.ID),
			Name: dev.Name(),
		})
	}
	return devices, nil
}

// SetDeviceByName выбирает устройство по имени (частичное совпадение)
// Пустое имя или "default" - устройство по умолчанию
func (c *Capture) SetDeviceByName(name string) error {
	if name == "" || name == "default" {
		c.deviceID = nil
		return nil
	}

	infos, err := c.ctx.Devices(malgo.Capture)
	if err != nil {
		return err
	}

	nameLower := strings.ToLower(name)
	for _, dev := range infos {
		if strings.Contains(strings.ToLower(dev.Name()), nameLower) {
			id := dev.ID
			c.deviceID = &id
			log.Printf("[Capture] Device selected: %s", dev.Name())
			return nil
		}
	}
	return fmt.Errorf("device not found: %s", name)
}

// Record записывает duration секунд моно аудио с частотой sampleRate
// Блокирует до окончания записи
func (c *Capture) Record(duration time.Duration, sampleRate int) (*Buffer, error) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil, fmt.Errorf("capture already running")
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1
	if c.deviceID != nil {
		deviceConfig.Capture.DeviceID = c.deviceID.Pointer()
	}

	wanted := int(float64(sampleRate) * duration.Seconds())
	samples := make([]float64, 0, wanted)
	done := make(chan struct{})
	var sampleMu sync.Mutex

	onRecvFrames := func(pOutputSample, pInputSamples []byte, framecount uint32) {
		count := int(framecount)
		if len(pInputSamples) != count*4 {
			return
		}

		sampleMu.Lock()
		defer sampleMu.Unlock()
		if len(samples) >= wanted {
			return
		}

		for i := 0; i < count && len(samples) < wanted; i++ {
			bits := uint32(pInputSamples[i*4]) | uint32(pInputSamples[i*4+1])<<8 |
				uint32(pInputSamples[i*4+2])<<16 | uint32(pInputSamples[i*4+3])<<24
			samples = append(samples, float64(math.Float32frombits(bits)))
		}
		if len(samples) >= wanted {
			select {
			case <-done:
			default:
				close(done)
			}
		}
	}

	device, err := malgo.InitDevice(c.ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onRecvFrames,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init capture device: %w", err)
	}
	c.device = device
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return nil, fmt.Errorf("failed to start capture: %w", err)
	}

	log.Printf("[Capture] Recording %.1f sec @ %d Hz...", duration.Seconds(), sampleRate)

	// Ждём нужное количество сэмплов, с запасом по времени на раскачку устройства
	select {
	case <-done:
	case <-time.After(duration + 5*time.Second):
	}

	if err := device.Stop(); err != nil {
		log.Printf("[Capture] Warning: failed to stop device: %v", err)
	}

	sampleMu.Lock()
	out := make([]float64, len(samples))
	copy(out, samples)
	sampleMu.Unlock()

	if len(out) == 0 {
		return nil, fmt.Errorf("no audio captured")
	}

	return &Buffer{Samples: out, SampleRate: sampleRate}, nil
}

// Close освобождает miniaudio контекст
func (c *Capture) Close() {
	if c.ctx != nil {
		c.ctx.Uninit()
		c.ctx.Free()
		c.ctx = nil
	}
}

// deviceIDToString конвертирует DeviceID в строку (первые 32 байта)
func deviceIDToString(id malgo.DeviceID) string {
	var result strings.Builder
	for _, b := range id[:32] {
		if b == 0 {
			break
		}
		result.WriteByte(b)
	}
	return result.String()
}
