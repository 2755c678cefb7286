package content

// Seed lists keep first-run and demo environments populated when the
// persistence service has no records yet. Each call returns a fresh slice.

// SeedArticles returns the fallback article list
func SeedArticles() []Article {
	return []Article{
		{
			ID:            "seed-article-1",
			Title:         "Navigating Commercial Real Estate Finance in a High-Rate Cycle",
			Excerpt:       "How developers are restructuring senior debt and bridging facilities while benchmark rates stay elevated.",
			Category:      CategoryRealEstate,
			Author:        "Adaeze Okafor",
			Date:          "2024-03-12",
			ReadTime:      "6 min read",
			ImageGradient: "from-blue-900 to-slate-900",
		},
		{
			ID:            "seed-article-2",
			Title:         "Working Capital Playbook for Growing SMEs",
			Excerpt:       "Receivables discounting, inventory lines and supplier terms: a practical guide to funding day-to-day operations.",
			Category:      CategoryGuide,
			Author:        "Tunde Bakare",
			Date:          "2024-02-28",
			ReadTime:      "4 min read",
			ImageGradient: "from-emerald-800 to-slate-900",
		},
		{
			ID:            "seed-article-3",
			Title:         "Green Bonds and the Rise of Eco-Finance",
			Excerpt:       "Why sustainability-linked instruments are moving from niche to mainstream in emerging-market portfolios.",
			Category:      CategoryEcoFinance,
			Author:        "Chioma Eze",
			Date:          "2024-02-10",
			ReadTime:      "5 min read",
			ImageGradient: "from-green-800 to-teal-900",
		},
		{
			ID:            "seed-article-4",
			Title:         "Digital Rails: What Open Banking Means for Treasury Teams",
			Excerpt:       "API-first payments and real-time reconciliation are reshaping how finance teams manage liquidity.",
			Category:      CategoryTech,
			Author:        "Ibrahim Musa",
			Date:          "2024-01-22",
			ReadTime:      "7 min read",
			ImageGradient: "from-indigo-900 to-purple-900",
		},
	}
}

// SeedTeam returns the fallback team list
func SeedTeam() []TeamMember {
	return []TeamMember{
		{
			ID:             "seed-team-1",
			Name:           "Adaeze Okafor",
			Role:           "Managing Partner",
			Bio:            "Two decades structuring real estate and infrastructure debt across West Africa.",
			Specialization: "Structured Finance",
			ImageGradient:  "from-slate-700 to-slate-900",
			LinkedIn:       "https://www.linkedin.com/",
		},
		{
			ID:             "seed-team-2",
			Name:           "Tunde Bakare",
			Role:           "Head of SME Advisory",
			Bio:            "Former operator who now helps founders build lender-ready businesses.",
			Specialization: "Business Advisory",
			ImageGradient:  "from-blue-800 to-slate-900",
		},
		{
			ID:             "seed-team-3",
			Name:           "Chioma Eze",
			Role:           "Director, Sustainable Finance",
			Bio:            "Leads the firm's green lending and ESG compliance practice.",
			Specialization: "Eco-Finance",
			ImageGradient:  "from-emerald-700 to-slate-900",
		},
	}
}

// SeedCarousel returns the fallback carousel list
func SeedCarousel() []CarouselItem {
	return []CarouselItem{
		{
			ID:            "seed-carousel-1",
			Type:          CarouselProduct,
			Title:         "Equipment Financing in 72 Hours",
			Summary:       "Fund the machinery your business needs with flexible repayment tied to cash flow.",
			Tag:           "New Product",
			LinkText:      "Apply Now",
			ImageGradient: "from-blue-900 to-indigo-900",
			StatLabel:     "Average approval",
			StatValue:     "72h",
		},
		{
			ID:            "seed-carousel-2",
			Type:          CarouselCustomer,
			Title:         "How a Lagos Logistics Firm Doubled Its Fleet",
			Summary:       "A working capital line and advisory support unlocked a new regional contract.",
			Tag:           "Customer Story",
			LinkText:      "Read Story",
			ImageGradient: "from-slate-800 to-emerald-900",
		},
		{
			ID:            "seed-carousel-3",
			Type:          CarouselAdvert,
			Title:         "Trade Finance for Exporters",
			Summary:       "Letters of credit and pre-shipment finance for businesses selling across borders.",
			Tag:           "Featured",
			LinkText:      "Learn More",
			ImageGradient: "from-purple-900 to-slate-900",
		},
	}
}

// SeedTicker returns the fallback ticker list
func SeedTicker() []TickerItem {
	return []TickerItem{
		{ID: "seed-ticker-1", Text: "Central bank holds benchmark rate steady at latest MPC meeting", Category: TickerMarket},
		{ID: "seed-ticker-2", Text: "Applications for Q3 SME working capital window now open", Category: TickerCorporate},
		{ID: "seed-ticker-3", Text: "Scheduled maintenance: client portal offline Saturday 02:00-04:00", Category: TickerUrgent},
		{ID: "seed-ticker-4", Text: "Equities close higher as banking stocks rally", Category: TickerMarket},
	}
}
