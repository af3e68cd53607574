package transport

import (
	"encoding/json"
	"fmt"

	"vsss-drive/field"
	"vsss-drive/utils"
)

// Vision datagrams carry centered coordinates in metres and radians.
// Any numeric key may be null or missing.
type wireBall struct {
	X  field.Raw `json:"x"`
	Y  field.Raw `json:"y"`
	VX field.Raw `json:"vx"`
	VY field.Raw `json:"vy"`
}

type wireRobot struct {
	ID           int       `json:"id"`
	X            field.Raw `json:"x"`
	Y            field.Raw `json:"y"`
	Orientation  field.Raw `json:"orientation"`
	VX           field.Raw `json:"vx"`
	VY           field.Raw `json:"vy"`
	VOrientation field.Raw `json:"vorientation"`
}

// VisionFrame is the datagram layout of the vision feed.
type VisionFrame struct {
	Ball   wireBall    `json:"ball"`
	Blue   []wireRobot `json:"blue"`
	Yellow []wireRobot `json:"yellow"`
}

func raw(r field.Raw) float64 {
	v, _ := r.Get()
	return v
}

func (b wireBall) state() field.BallState {
	return field.BallState{
		Pose:     field.Pose2D{X: field.ToFieldX(b.X), Y: field.ToFieldY(b.Y)},
		Velocity: field.Velocity2D{VX: raw(b.VX), VY: raw(b.VY)},
	}
}

func (r wireRobot) state(side field.Side) field.RobotState {
	return field.RobotState{
		Side:  side,
		Index: r.ID,
		Pose: field.Pose2D{
			X:       field.ToFieldX(r.X),
			Y:       field.ToFieldY(r.Y),
			Heading: field.ToHeading(r.Orientation),
		},
		Velocity:        field.Velocity2D{VX: raw(r.VX), VY: raw(r.VY)},
		AngularVelocity: raw(r.VOrientation),
	}
}

// fillTeam places robots by id. Robots vision did not report keep a zero
// pose; unknown ids are ignored.
func fillTeam(dst *[field.NumRobots]field.RobotState, side field.Side, robots []wireRobot) {
	for i := range dst {
		dst[i] = field.RobotState{Side: side, Index: i}
	}
	for _, r := range robots {
		if r.ID < 0 || r.ID >= field.NumRobots {
			continue
		}
		dst[r.ID] = r.state(side)
	}
}

// DecodeVisionFrame turns a datagram into a snapshot from team's point of
// view. The referee part is left at its zero value.
func DecodeVisionFrame(b []byte, team field.TeamColor) (field.FieldSnapshot, error) {
	var frame VisionFrame
	if err := json.Unmarshal(b, &frame); err != nil {
		return field.FieldSnapshot{}, fmt.Errorf("decode vision frame: %w", err)
	}

	ours, theirs := frame.Blue, frame.Yellow
	if team == field.Yellow {
		ours, theirs = frame.Yellow, frame.Blue
	}

	var snap field.FieldSnapshot
	snap.Ball = frame.Ball.state()
	fillTeam(&snap.Ours, field.Ours, ours)
	fillTeam(&snap.Theirs, field.Theirs, theirs)
	return snap, nil
}

// VisionClient turns the latest vision datagram into a FieldSnapshot.
type VisionClient struct {
	src  frameSource
	team field.TeamColor
	log  *utils.Logger

	lastSeq  uint64
	lastGood *field.FieldSnapshot
}

func NewVisionClient(src frameSource, team field.TeamColor, log *utils.Logger) *VisionClient {
	return &VisionClient{src: src, team: team, log: log}
}

// PollField returns the newest decodable snapshot, the previous one when
// nothing newer arrived, or field.ErrNoData before the first good frame.
func (v *VisionClient) PollField() (field.FieldSnapshot, error) {
	payload, seq, ok := v.src.Latest()
	if !ok {
		return field.FieldSnapshot{}, field.ErrNoData
	}
	if seq != v.lastSeq {
		v.lastSeq = seq
		snap, err := DecodeVisionFrame(payload, v.team)
		if err != nil {
			v.log.Warn("vision seq=%d: %v", seq, err)
		} else {
			v.lastGood = &snap
		}
	}
	if v.lastGood == nil {
		return field.FieldSnapshot{}, fmt.Errorf("vision: %w", field.ErrNoData)
	}
	return *v.lastGood, nil
}
