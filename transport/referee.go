package transport

import (
	"encoding/json"
	"fmt"

	"vsss-drive/field"
	"vsss-drive/utils"
)

// RefereeFrame is the datagram layout of the referee feed. Foul is the
// interrupt type (GAME_ON = 6, HALT = 7).
type RefereeFrame struct {
	Foul     *int `json:"foul"`
	Color    int  `json:"color"`
	Quadrant int  `json:"quadrant"`
}

// DecodeRefereeFrame validates and converts a referee datagram.
func DecodeRefereeFrame(b []byte) (field.RefereeStatus, error) {
	var frame RefereeFrame
	if err := json.Unmarshal(b, &frame); err != nil {
		return field.RefereeStatus{}, fmt.Errorf("decode referee frame: %w", err)
	}
	if frame.Foul == nil {
		return field.RefereeStatus{}, fmt.Errorf("referee frame lacks foul")
	}
	it := field.InterruptType(*frame.Foul)
	if it < field.FreeKick || it > field.Halt {
		return field.RefereeStatus{}, fmt.Errorf("unknown interrupt type %d", *frame.Foul)
	}
	return field.NewRefereeStatus(it, field.FoulColor(frame.Color), field.Quadrant(frame.Quadrant)), nil
}

// RefereeClient turns the latest referee datagram into a RefereeStatus.
type RefereeClient struct {
	src frameSource
	log *utils.Logger

	lastSeq  uint64
	lastGood *field.RefereeStatus
}

func NewRefereeClient(src frameSource, log *utils.Logger) *RefereeClient {
	return &RefereeClient{src: src, log: log}
}

// PollReferee mirrors VisionClient.PollField.
func (r *RefereeClient) PollReferee() (field.RefereeStatus, error) {
	payload, seq, ok := r.src.Latest()
	if !ok {
		return field.RefereeStatus{}, field.ErrNoData
	}
	if seq != r.lastSeq {
		r.lastSeq = seq
		st, err := DecodeRefereeFrame(payload)
		if err != nil {
			r.log.Warn("referee seq=%d: %v", seq, err)
		} else {
			r.lastGood = &st
		}
	}
	if r.lastGood == nil {
		return field.RefereeStatus{}, fmt.Errorf("referee: %w", field.ErrNoData)
	}
	return *r.lastGood, nil
}
