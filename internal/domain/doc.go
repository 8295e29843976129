// Package domain models the USGS earthquake summary feed and the map overlay
// built from it.
//
// # Data Source
//
// The USGS publishes GeoJSON summary feeds at
// https://earthquake.usgs.gov/earthquakes/feed/v1.0/geojson.php. One file
// exists per (minimum magnitude, time window) pair:
//
//	{base}/{magnitude}_{window}.geojson  →  e.g. ".../summary/2.5_week.geojson"
//	magnitude: all, 1.0, 2.5, 4.5, significant
//	window:    hour, day, week, month
//
// The month window is not offered for the all and 1.0 buckets; see
// [MagnitudeSelectable].
//
// # Feed Conventions
//
// Coordinates:
//
//	geometry.coordinates = [longitude, latitude, depth]
//	Depth is kilometers below the surface and may be negative for events
//	above the geoid.
//
// Magnitude:
//
//	properties.mag is a float and may be null, zero or negative for very
//	small events. Null decodes as 0.
//
// Time:
//
//	properties.time is milliseconds since the Unix epoch, UTC.
//
// Place:
//
//	properties.place is free text such as "10 km N of Testville, CA" and may
//	be null. Events without a place get a marker but no popup.
//
// # Marker Sizing
//
// Marker area is proportional to 10^(magnitude/2.5), normalized so that a
// magnitude 1 event covers 10 square pixels. See [MarkerRadius].
package domain
