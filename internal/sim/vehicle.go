// Package sim is an in-process stand-in for the flight stack, the downward
// camera, the symbol decoder and the LED strip. It lets the mission run end
// to end on a workstation.
package sim

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/roman-kulish/waypoint-inspection/internal/flight"
	"github.com/roman-kulish/waypoint-inspection/internal/led"
	"github.com/roman-kulish/waypoint-inspection/internal/telemetry"
	"github.com/roman-kulish/waypoint-inspection/internal/vision"
)

const (
	DefaultSpeed        = 0.4
	DefaultStep         = 200 * time.Millisecond
	DefaultViewRadius   = 0.3
	DefaultViewAltitude = 1.0
)

var (
	Background = color.RGBA{R: 128, G: 128, B: 128, A: 255}

	markerColors = map[vision.Color]color.RGBA{
		vision.ColorRed:    {R: 200, G: 20, B: 20, A: 255},
		vision.ColorYellow: {R: 220, G: 200, B: 30, A: 255},
		vision.ColorGreen:  {R: 46, G: 55, B: 51, A: 255},
	}
)

// Marker is a painted ground tile with an optional symbol on it
type Marker struct {
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Color   string  `yaml:"color"`   // red, yellow or green
	Payload string  `yaml:"payload"` // Symbol payload, empty for none
}

func (m Marker) Validate() error {
	c, err := vision.ParseColor(m.Color)
	if err != nil {
		return fmt.Errorf("marker at (%g, %g): %w", m.X, m.Y, err)
	}
	if c == vision.ColorUnknown {
		return fmt.Errorf("marker at (%g, %g): color is required", m.X, m.Y)
	}
	return nil
}

// WithMarkers places markers on the field
func WithMarkers(markers ...Marker) func(v *Vehicle) {
	return func(v *Vehicle) {
		v.markers = append(v.markers, markers...)
	}
}

// WithStep sets how much simulated flight time passes per telemetry poll
func WithStep(step time.Duration) func(v *Vehicle) {
	return func(v *Vehicle) {
		v.step = step
	}
}

// WithView sets how close and how low the vehicle must be to see a marker
func WithView(radius, altitude float64) func(v *Vehicle) {
	return func(v *Vehicle) {
		v.viewRadius = radius
		v.viewAltitude = altitude
	}
}

// WithRejection makes the vehicle refuse every command reject returns true for
func WithRejection(reject func(cmd flight.MoveCommand) bool) func(v *Vehicle) {
	return func(v *Vehicle) {
		v.reject = reject
	}
}

// WithLogger sets the logger for the vehicle
func WithLogger(logger *slog.Logger) func(v *Vehicle) {
	return func(v *Vehicle) {
		v.logger = logger.With(slog.String("component", "sim"))
	}
}

// Vehicle is a point mass that flies in straight lines toward its setpoint.
// It is safe for concurrent use.
type Vehicle struct {
	mu sync.Mutex

	position [3]float64
	target   [3]float64
	speed    float64
	armed    bool

	step         time.Duration
	viewRadius   float64
	viewAltitude float64
	markers      []Marker
	reject       func(cmd flight.MoveCommand) bool

	commands []flight.MoveCommand
	effects  []color.RGBA

	logger *slog.Logger
}

var (
	_ telemetry.Provider   = (*Vehicle)(nil)
	_ flight.Navigator     = (*Vehicle)(nil)
	_ flight.Arming        = (*Vehicle)(nil)
	_ flight.Lander        = (*Vehicle)(nil)
	_ vision.Camera        = (*Vehicle)(nil)
	_ vision.SymbolDecoder = (*Vehicle)(nil)
	_ led.Effect           = (*Vehicle)(nil)
)

// NewVehicle creates a disarmed vehicle resting at (x, y) with a discard logger
func NewVehicle(x, y float64, options ...func(v *Vehicle)) *Vehicle {
	v := Vehicle{
		position:     [3]float64{x, y, 0},
		target:       [3]float64{x, y, 0},
		speed:        DefaultSpeed,
		step:         DefaultStep,
		viewRadius:   DefaultViewRadius,
		viewAltitude: DefaultViewAltitude,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, option := range options {
		option(&v)
	}

	return &v
}

// Services returns the vehicle as the flight stack of a navigation client
func (v *Vehicle) Services() flight.Services {
	return flight.Services{
		Telemetry: v,
		Navigator: v,
		Arming:    v,
		Lander:    v,
	}
}

// Position advances the simulation by one step and reports the position in frame
func (v *Vehicle) Position(ctx context.Context, frame telemetry.Frame) (telemetry.Position, error) {
	if err := ctx.Err(); err != nil {
		return telemetry.Position{}, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.advance()

	p := telemetry.Position{Timestamp: time.Now(), Frame: frame}
	switch frame {
	case telemetry.FrameMarkerMap:
		p.X, p.Y, p.Z = v.position[0], v.position[1], v.position[2]

	case telemetry.FrameNavigateTarget:
		p.X = v.position[0] - v.target[0]
		p.Y = v.position[1] - v.target[1]
		p.Z = v.position[2] - v.target[2]

	case telemetry.FrameBody:

	default:
		return telemetry.Position{}, fmt.Errorf("unknown frame '%s'", frame)
	}

	return p, nil
}

func (v *Vehicle) advance() {
	if !v.armed {
		return
	}

	delta := []float64{
		v.target[0] - v.position[0],
		v.target[1] - v.position[1],
		v.target[2] - v.position[2],
	}

	distance := floats.Norm(delta, 2)
	travel := v.speed * v.step.Seconds()
	if distance <= travel || distance == 0 {
		v.position = v.target
		return
	}

	floats.Scale(travel/distance, delta)
	v.position[0] += delta[0]
	v.position[1] += delta[1]
	v.position[2] += delta[2]
}

func (v *Vehicle) Navigate(ctx context.Context, cmd flight.MoveCommand) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.commands = append(v.commands, cmd)

	if v.reject != nil && v.reject(cmd) {
		v.logger.Warn("rejecting command", slog.Float64("x", cmd.X), slog.Float64("y", cmd.Y), slog.Float64("z", cmd.Z))
		return false, nil
	}

	if !v.armed {
		if !cmd.AutoArm {
			v.logger.Warn("rejecting command while disarmed")
			return false, nil
		}
		v.armed = true
	}

	switch cmd.Frame {
	case telemetry.FrameMarkerMap:
		v.target = [3]float64{cmd.X, cmd.Y, cmd.Z}
	case telemetry.FrameBody:
		v.target = [3]float64{v.position[0] + cmd.X, v.position[1] + cmd.Y, v.position[2] + cmd.Z}
	default:
		return false, fmt.Errorf("unsupported frame '%s'", cmd.Frame)
	}

	if cmd.Speed > 0 {
		v.speed = cmd.Speed
	}

	v.logger.Debug("navigating",
		slog.Float64("x", v.target[0]),
		slog.Float64("y", v.target[1]),
		slog.Float64("z", v.target[2]))

	return true, nil
}

func (v *Vehicle) SetArmed(ctx context.Context, armed bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if !armed && v.position[2] > 0 {
		return fmt.Errorf("cannot disarm at %gm", v.position[2])
	}
	v.armed = armed
	return nil
}

// Land touches down immediately below the vehicle
func (v *Vehicle) Land(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.position[2] = 0
	v.target = v.position
	v.logger.Debug("landed", slog.Float64("x", v.position[0]), slog.Float64("y", v.position[1]))
	return nil
}

// LatestFrame renders the view of the downward camera at the working
// resolution: the marker color in the middle of the frame when a marker is
// in view, plain background otherwise.
func (v *Vehicle) LatestFrame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.mu.Lock()
	marker, ok := v.inView()
	v.mu.Unlock()

	frame := image.NewRGBA(image.Rect(0, 0, vision.WorkingWidth, vision.WorkingHeight))
	draw.Draw(frame, frame.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	if ok {
		c, _ := vision.ParseColor(marker.Color)
		if fill, known := markerColors[c]; known {
			tile := image.Rect(vision.WorkingWidth/4, vision.WorkingHeight/4, vision.WorkingWidth*3/4, vision.WorkingHeight*3/4)
			draw.Draw(frame, tile, image.NewUniform(fill), image.Point{}, draw.Src)
		}
	}

	return frame, nil
}

// Decode reports the payload of the marker in view. The image is not inspected.
func (v *Vehicle) Decode(ctx context.Context, _ *image.Gray) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	marker, ok := v.inView()
	if !ok || marker.Payload == "" {
		return nil, nil
	}
	return []string{marker.Payload}, nil
}

func (v *Vehicle) SetEffect(ctx context.Context, c color.RGBA) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.effects = append(v.effects, c)
	v.logger.Info("led effect", slog.String("color", led.Hex(c)))
	return nil
}

// inView returns the nearest marker within view range
func (v *Vehicle) inView() (Marker, bool) {
	if v.position[2] <= 0 || v.position[2] > v.viewAltitude {
		return Marker{}, false
	}

	best, found := Marker{}, false
	nearest := math.Inf(1)
	for _, m := range v.markers {
		d := math.Hypot(m.X-v.position[0], m.Y-v.position[1])
		if d <= v.viewRadius && d < nearest {
			best, found, nearest = m, true, d
		}
	}
	return best, found
}

// MapPosition returns the current position without advancing the simulation
func (v *Vehicle) MapPosition() (x, y, z float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.position[0], v.position[1], v.position[2]
}

// Armed reports whether propulsion is on
func (v *Vehicle) Armed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.armed
}

// Commands returns every move command received, rejected ones included
func (v *Vehicle) Commands() []flight.MoveCommand {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]flight.MoveCommand(nil), v.commands...)
}

// Effects returns every LED color set, in order
func (v *Vehicle) Effects() []color.RGBA {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]color.RGBA(nil), v.effects...)
}
