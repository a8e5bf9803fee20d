package profile

// Names key config overrides, so every built-in profile has its own.
const (
	FaceName         = "face"
	PersonName       = "person"
	SingleFaceName   = "face-only"
	SinglePersonName = "person-only"
)

// Face is the face detector of the combined pipeline: blurred, class ids 0 and 1.
func Face() Profile {
	return Profile{
		Name:       FaceName,
		Layout:     LayoutClassScores,
		Confidence: 0.3,
		NMS:        0.4,
		Classes:    []int{0, 1},
		Privacy:    true,
	}
}

// Person is the person detector of the combined pipeline: outline only.
func Person() Profile {
	return Profile{
		Name:       PersonName,
		Layout:     LayoutClassScores,
		Confidence: 0.5,
		NMS:        0.4,
		Classes:    []int{0, 1},
	}
}

// SingleFace is the standalone face detector: objectness layout, scored label over each box.
func SingleFace() Profile {
	return Profile{
		Name:       SingleFaceName,
		Layout:     LayoutObjectness,
		Confidence: 0.2,
		NMS:        0.3,
		Classes:    []int{0},
		Privacy:    true,
		Label:      "Face",
	}
}

// SinglePerson is the standalone person detector.
func SinglePerson() Profile {
	return Profile{
		Name:       SinglePersonName,
		Layout:     LayoutClassScores,
		Confidence: 0.4,
		NMS:        0.4,
		Classes:    []int{0},
	}
}
