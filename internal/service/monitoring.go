package service

import (
	"context"

	"jacuzzi_controller/internal/models"
	"jacuzzi_controller/internal/repository"
)

// DeviceStatus is the typed snapshot pushed over the websocket stream.
type DeviceStatus struct {
	DeviceID string             `json:"device_id"`
	Flags    models.DeviceFlags `json:"flags"`
	State    models.DeviceState `json:"state"`
}

type MonitoringService struct {
	cloud repository.DeviceCloud
}

func NewMonitoringService(cloud repository.DeviceCloud) *MonitoringService {
	return &MonitoringService{cloud: cloud}
}

// Status fetches the device's current state and derives its flags.
func (s *MonitoringService) Status(ctx context.Context, deviceID string) (DeviceStatus, error) {
	st, err := s.cloud.GetState(ctx, deviceID)
	if err != nil {
		return DeviceStatus{}, err
	}
	return DeviceStatus{
		DeviceID: deviceID,
		Flags:    DeriveFlags(st),
		State:    st,
	}, nil
}
