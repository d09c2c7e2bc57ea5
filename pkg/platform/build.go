package platform

// BuildInfo holds the build and version properties of the device.
type BuildInfo struct {
	Model        string
	Manufacturer string
	Brand        string
	Release      string
	SDK          int
	Hardware     string
	Device       string
	Product      string
}

// BuildSource reports the device build properties.
type BuildSource interface {
	BuildInfo() (BuildInfo, error)
}
