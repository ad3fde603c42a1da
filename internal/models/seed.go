package models

// InitialAlerts are written once when the alerts collection is empty.
func InitialAlerts() []Alert {
	return []Alert{
		{Type: "Flood Warning", Area: "Guwahati, Assam", Severity: SeverityHigh, Message: "River Brahmaputra is flowing above the danger level. People in low-lying areas are advised to move to safer places.", Time: "2 hours ago"},
		{Type: "Cyclone Alert", Area: "Coastal Odisha", Severity: SeverityMedium, Message: "A cyclone is expected to make landfall in the next 48 hours. Fishermen are advised not to venture into the sea.", Time: "8 hours ago"},
		{Type: "Heatwave", Area: "Jaipur, Rajasthan", Severity: SeverityLow, Message: "Temperatures are expected to rise above 45°C. Stay hydrated and avoid outdoor activities during peak hours.", Time: "1 day ago"},
	}
}

// InitialShelters are written once when the shelters collection is empty.
func InitialShelters() []Shelter {
	return []Shelter{
		{Name: "Govt. High School Relief Camp", Location: "Bhubaneswar", Distance: "2.5 km", Capacity: 250, Available: 80, Lat: 20.2961, Lng: 85.8245},
		{Name: "Community Hall, Sector 12", Location: "Guwahati", Distance: "4.1 km", Capacity: 150, Available: 25, Lat: 26.1445, Lng: 91.7362},
		{Name: "Red Cross Shelter", Location: "Dehradun", Distance: "5.8 km", Capacity: 100, Available: 90, Lat: 30.3165, Lng: 78.0322},
		{Name: "City Stadium", Location: "Jaipur", Distance: "10.2 km", Capacity: 1000, Available: 450, Lat: 26.9124, Lng: 75.7873},
	}
}
