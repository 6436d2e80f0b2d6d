package model

// ValueType is the Sber discriminator for a state value.
type ValueType string

func (vt ValueType) String() string {
	return string(vt)
}

const (
	ValueBool    ValueType = "BOOL"
	ValueInteger ValueType = "INTEGER"
	ValueEnum    ValueType = "ENUM"
	ValueColour  ValueType = "COLOUR"
	ValueString  ValueType = "STRING"
	ValueFloat   ValueType = "FLOAT"
)

// Category is the Sber device category.
type Category string

func (c Category) String() string {
	return string(c)
}

const (
	CategoryHub            Category = "hub"
	CategoryLight          Category = "light"
	CategoryCurtain        Category = "curtain"
	CategoryHvacAC         Category = "hvac_ac"
	CategoryHvacRadiator   Category = "hvac_radiator"
	CategoryRelay          Category = "relay"
	CategorySensorTemp     Category = "sensor_temp"
	CategorySensorPir      Category = "sensor_pir"
	CategoryScenarioButton Category = "scenario_button"
)

// Feature keys shared between descriptors and state snapshots.
const (
	FeatureOnline               = "online"
	FeatureOnOff                = "on_off"
	FeatureTemperature          = "temperature"
	FeatureHumidity             = "humidity"
	FeatureButtonEvent          = "button_event"
	FeaturePirEvent             = "pir"
	FeatureLightBrightness      = "light_brightness"
	FeatureLightColour          = "light_colour"
	FeatureLightMode            = "light_mode"
	FeatureLightColourTemp      = "light_colour_temp"
	FeatureOpenPercentage       = "open_percentage"
	FeatureOpenSet              = "open_set"
	FeatureOpenState            = "open_state"
	FeatureCoverPosition        = "cover_position"
	FeatureHvacTempSet          = "hvac_temp_set"
	FeatureHvacAirFlowDirection = "hvac_air_flow_direction"
	FeatureHvacAirFlowPower     = "hvac_air_flow_power"
	FeatureHvacWorkMode         = "hvac_work_mode"
)

// RootDeviceID is the synthetic hub entry heading every devices-list.
const RootDeviceID = "root"
