package api

type (
	// ConditionKind names one of the environmental conditions
	ConditionKind string

	// ImageQuality is the seeing percentile
	ImageQuality string

	// CloudCover is the cloud cover percentile
	CloudCover string

	// WaterVapor is the water vapor percentile
	WaterVapor string

	// SkyBackground is the sky brightness percentile
	SkyBackground string

	// Conditions are the environmental conditions shared by all sequences
	Conditions struct {
		ImageQuality  ImageQuality  `json:"image_quality"`
		CloudCover    CloudCover    `json:"cloud_cover"`
		WaterVapor    WaterVapor    `json:"water_vapor"`
		SkyBackground SkyBackground `json:"sky_background"`
	}
)

const (
	ConditionImageQuality  ConditionKind = "image_quality"
	ConditionCloudCover    ConditionKind = "cloud_cover"
	ConditionWaterVapor    ConditionKind = "water_vapor"
	ConditionSkyBackground ConditionKind = "sky_background"
)

const (
	ImageQuality20  ImageQuality = "20"
	ImageQuality70  ImageQuality = "70"
	ImageQuality85  ImageQuality = "85"
	ImageQualityAny ImageQuality = "any"

	CloudCover50  CloudCover = "50"
	CloudCover70  CloudCover = "70"
	CloudCover80  CloudCover = "80"
	CloudCoverAny CloudCover = "any"

	WaterVapor20  WaterVapor = "20"
	WaterVapor50  WaterVapor = "50"
	WaterVapor80  WaterVapor = "80"
	WaterVaporAny WaterVapor = "any"

	SkyBackground20  SkyBackground = "20"
	SkyBackground50  SkyBackground = "50"
	SkyBackground80  SkyBackground = "80"
	SkyBackgroundAny SkyBackground = "any"
)

var conditionValues = map[ConditionKind][]string{
	ConditionImageQuality: {
		string(ImageQuality20), string(ImageQuality70),
		string(ImageQuality85), string(ImageQualityAny),
	},
	ConditionCloudCover: {
		string(CloudCover50), string(CloudCover70),
		string(CloudCover80), string(CloudCoverAny),
	},
	ConditionWaterVapor: {
		string(WaterVapor20), string(WaterVapor50),
		string(WaterVapor80), string(WaterVaporAny),
	},
	ConditionSkyBackground: {
		string(SkyBackground20), string(SkyBackground50),
		string(SkyBackground80), string(SkyBackgroundAny),
	},
}

// DefaultConditions returns the conditions assumed before any are reported
func DefaultConditions() Conditions {
	return Conditions{
		ImageQuality:  ImageQualityAny,
		CloudCover:    CloudCoverAny,
		WaterVapor:    WaterVaporAny,
		SkyBackground: SkyBackgroundAny,
	}
}

// ConditionValues returns the accepted values for a condition kind
func ConditionValues(kind ConditionKind) []string {
	return conditionValues[kind]
}

// Set returns a copy of the Conditions with one condition replaced. The
// boolean result is false if the kind or the value is not recognized
func (c Conditions) Set(kind ConditionKind, value string) (Conditions, bool) {
	valid := false
	for _, v := range conditionValues[kind] {
		if v == value {
			valid = true
			break
		}
	}
	if !valid {
		return c, false
	}

	switch kind {
	case ConditionImageQuality:
		c.ImageQuality = ImageQuality(value)
	case ConditionCloudCover:
		c.CloudCover = CloudCover(value)
	case ConditionWaterVapor:
		c.WaterVapor = WaterVapor(value)
	case ConditionSkyBackground:
		c.SkyBackground = SkyBackground(value)
	}
	return c, true
}
