package models

// StarterDishes is the built-in set shown on a fresh device with no household.
func StarterDishes() []Entry {
	return []Entry{
		Dish{
			ID:          "1",
			Title:       "番茄炒蛋",
			Description: "酸甜开胃的家常快手菜",
			Image:       "https://images.unsplash.com/photo-1582576163090-09d3b6f8a969?w=800",
			Category:    CategoryMainMeal,
			Ingredients: []Ingredient{
				{Name: "番茄", Amount: "2个"},
				{Name: "鸡蛋", Amount: "3个"},
				{Name: "葱", Amount: "适量"},
				{Name: "糖", Amount: "1小勺"},
			},
			Steps: []Step{
				{Description: "鸡蛋打散，番茄切块。"},
				{Description: "热油炒蛋至凝固后盛出。"},
				{Description: "番茄下锅炒出汁，加糖和盐。"},
				{Description: "倒回鸡蛋翻炒均匀，撒葱花出锅。"},
			},
			CreatedAt: 1700000000000,
			Rating:    5,
			Tags:      []string{"快手", "家常"},
		},
		Dish{
			ID:          "2",
			Title:       "皮蛋瘦肉粥",
			Description: "暖胃的广式早餐粥",
			Image:       "https://images.unsplash.com/photo-1604908176997-125f25cc6f3d?w=800",
			Category:    CategoryBreakfast,
			Ingredients: []Ingredient{
				{Name: "大米", Amount: "100克"},
				{Name: "皮蛋", Amount: "2个"},
				{Name: "瘦肉", Amount: "150克"},
				{Name: "姜", Amount: "适量"},
			},
			Steps: []Step{
				{Description: "大米洗净加少许油浸泡半小时。"},
				{Description: "瘦肉切丝用盐腌制。"},
				{Description: "米加水煮开转小火熬四十分钟。"},
				{Description: "加入皮蛋和肉丝再煮十分钟调味。"},
			},
			CreatedAt: 1700000001000,
			Rating:    4,
			Tags:      []string{"早餐", "粥"},
		},
		Dish{
			ID:          "3",
			Title:       "红烧肉",
			Description: "肥而不腻的经典下饭菜",
			Image:       "https://images.unsplash.com/photo-1623689046286-01d8d8f8a5f2?w=800",
			Category:    CategoryMainMeal,
			Ingredients: []Ingredient{
				{Name: "五花肉", Amount: "500克"},
				{Name: "冰糖", Amount: "30克"},
				{Name: "生抽", Amount: "2勺"},
				{Name: "老抽", Amount: "1勺"},
			},
			Steps: []Step{
				{Description: "五花肉切块焯水。"},
				{Description: "小火炒糖色，下肉块翻炒上色。"},
				{Description: "加生抽老抽和热水，小火炖一小时。"},
				{Description: "大火收汁。"},
			},
			CreatedAt:  1700000002000,
			Rating:     5,
			IsFavorite: true,
			Tags:       []string{"硬菜"},
		},
		Dish{
			ID:          "4",
			Title:       "酸奶水果杯",
			Description: "五分钟搞定的下午茶",
			Image:       "https://images.unsplash.com/photo-1488477181946-6428a0291777?w=800",
			Category:    CategorySnack,
			Ingredients: []Ingredient{
				{Name: "酸奶", Amount: "200克"},
				{Name: "草莓", Amount: "5个"},
				{Name: "燕麦", Amount: "适量"},
			},
			Steps: []Step{
				{Description: "水果切丁。"},
				{Description: "杯中依次铺酸奶、燕麦和水果。"},
			},
			CreatedAt: 1700000003000,
			Rating:    4,
			Tags:      []string{"甜点", "快手"},
		},
	}
}
