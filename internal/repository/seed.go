package repository

import "github.com/iliyamo/attraction-registry/internal/model"

// SeedAttractions returns a fresh copy of the records present at startup.
func SeedAttractions() []model.Attraction {
	return []model.Attraction{
		seed(1, "วัดพระแก้ว", "วัดที่สำคัญที่สุดในประเทศไทย ตั้งอยู่ในพระบรมมหาราชวัง", "กรุงเทพมหานคร", "วัด", 4.8, "https://example.com/wat-phra-kaew.jpg"),
		seed(2, "เขาใหญ่", "อุทยานแห่งชาติที่มีความหลากหลายทางชีวภาพสูง", "นครราชสีมา", "ธรรมชาติ", 4.6, "https://example.com/khao-yai.jpg"),
		seed(3, "พระนครศรีอยุธยา", "เมืองเก่าที่เป็นมหาวิทยาลัยโลก", "พระนครศรีอยุธยา", "ประวัติศาสตร์", 4.7, "https://example.com/ayutthaya.jpg"),
		seed(4, "เกาะพีพี", "เกาะสวยงามในทะเลอันดามัน", "กระบี่", "ทะเล", 4.5, "https://example.com/phi-phi.jpg"),
		seed(5, "ดอยอินทนนท์", "ยอดเขาสูงสุดในประเทศไทย", "เชียงใหม่", "ภูเขา", 4.7, "https://example.com/doi-inthanon.jpg"),
	}
}

func seed(id int, name, description, location, category string, rating float64, imageURL string) model.Attraction {
	return model.Attraction{ID: id, Fields: map[string]any{
		"name":        name,
		"description": description,
		"location":    location,
		"category":    category,
		"rating":      rating,
		"image_url":   imageURL,
	}}
}
