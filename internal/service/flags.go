package service

import "jacuzzi_controller/internal/models"

// DeriveFlags computes the user-facing booleans from a raw state snapshot.
//
//   - Active: enabled for today and enough water in the tub.
//   - On: any actuator running.
//   - HeaterActive: heater running, or at least allowed to run.
func DeriveFlags(st models.DeviceState) models.DeviceFlags {
	return models.DeviceFlags{
		Active:        st.Active && st.LevelSensor == 1,
		On:            st.Bubbles || st.Heater,
		BubblesActive: st.Bubbles,
		HeaterActive:  st.Heater || st.CanHeater == 1,
	}
}
