package catalog

var defaultProducts = []Product{
	{
		ID:          "perf-1",
		Name:        "Midnight Bloom",
		Description: "A luxurious floral scent with notes of jasmine and vanilla. Perfect for evening occasions.",
		Price:       8500,
		Category:    CategoryPerfumes,
		Images: []string{
			"https://images.unsplash.com/photo-1523293182086-7651a899d37f",
			"https://images.unsplash.com/photo-1541643600914-78b084683601",
		},
		Featured:   true,
		InStock:    true,
		NewArrival: true,
	},
	{
		ID:          "perf-2",
		Name:        "Golden Elixir",
		Description: "An elegant perfume with sweet and woody accords. Long-lasting fragrance for all-day wear.",
		Price:       17500,
		Category:    CategoryPerfumes,
		Images: []string{
			"https://images.unsplash.com/photo-1587017539504-67cfbddac569",
			"https://images.unsplash.com/photo-1594035910387-fea47794261f",
		},
		InStock: true,
	},
	{
		ID:          "perf-3",
		Name:        "BELLAVITA",
		Description: "An elegant perfume with sweet and woody accords. Long-lasting fragrance for all-day wear.",
		Price:       35000,
		Category:    CategoryPerfumes,
		Images: []string{
			"https://i.ebayimg.com/images/g/~jkAAOSwO3Bm0uWN/s-l1600.webp",
			"https://i.ebayimg.com/images/g/LxoAAOSwMnBm0uWO/s-l960.webp",
			"https://i.ebayimg.com/images/g/nJMAAOSw3Uxm0uWO/s-l960.webp",
		},
		InStock: true,
	},
	{
		ID:          "bag-1",
		Name:        "Elegance Tote",
		Description: "A spacious and stylish tote bag perfect for everyday use. Made with premium leather.",
		Price:       12000,
		Category:    CategoryBags,
		Images: []string{
			"https://images.unsplash.com/photo-1584917865442-de89df76afd3",
			"https://images.unsplash.com/photo-1591561954557-26941169b49e",
		},
		Featured: true,
		InStock:  true,
	},
	{
		ID:          "bag-2",
		Name:        "Glamour Clutch",
		Description: "A stunning evening clutch with gold-tone hardware. Perfect for special occasions.",
		Price:       9500,
		Category:    CategoryBags,
		Images: []string{
			"https://images.unsplash.com/photo-1598532163257-ae3c6b2524b6",
			"https://images.unsplash.com/photo-1601924582970-9238bcb495d9",
		},
		InStock:    true,
		NewArrival: true,
	},
	{
		ID:          "bag-3",
		Name:        "Mateamoda Women Bag",
		Description: "Mateamoda 3 PCS Women Bags Ladies Bags Handbags Purse Shoulder Bags.",
		Price:       9500,
		Category:    CategoryBags,
		Images: []string{
			"https://ng.jumia.is/unsafe/fit-in/500x500/filters:fill(white)/product/32/545695/1.jpg?8564",
			"https://ng.jumia.is/unsafe/fit-in/500x500/filters:fill(white)/product/32/545695/2.jpg?9730",
			"https://ng.jumia.is/unsafe/fit-in/500x500/filters:fill(white)/product/32/545695/3.jpg?9730",
		},
		InStock:    true,
		NewArrival: true,
	},
	{
		ID:          "acc-1",
		Name:        "Pearl Hairpin Set",
		Description: "Set of 3 elegant pearl hairpins. Add a touch of sophistication to any hairstyle.",
		Price:       3500,
		Category:    CategoryAccessories,
		Images: []string{
			"https://images.unsplash.com/photo-1599643477877-530eb83abc8e",
			"https://images.unsplash.com/photo-1630006837255-96cd14f8a80a",
		},
		Featured:   true,
		InStock:    true,
		NewArrival: true,
	},
	{
		ID:          "acc-2",
		Name:        "Hair Bands With Teeth",
		Description: "4pcs Women's Hairbands With Teeth. Simple fashion, versatile hair bands and face wash headband.",
		Price:       4200,
		Category:    CategoryAccessories,
		Images: []string{
			"https://img.kwcdn.com/product/Fancyalgo/VirtualModelMatting/d0d66694252bfc10f4d440589ef7afec.jpg?imageView2/2/w/800/q/70/format/webp",
			"https://img-1.kwcdn.com/product/Fancyalgo/VirtualModelMatting/e00dc24eab73c7827835fabae558391d.jpg?imageView2/2/w/800/q/70/format/webp",
		},
		InStock: true,
	},
	{
		ID:          "acc-3",
		Name:        "Wedding Hair Comb",
		Description: "Wedding Hair Comb 1pc and Hair Pins 2pcs, bride hair accessories with rhinestone pearl clips (3pcs set).",
		Price:       4200,
		Category:    CategoryAccessories,
		Images: []string{
			"https://m.media-amazon.com/images/I/817vWBiLvsL._SL1500_.jpg",
			"https://m.media-amazon.com/images/I/71A4sZxP8KL._SL1500_.jpg",
		},
		InStock: true,
	},
}
