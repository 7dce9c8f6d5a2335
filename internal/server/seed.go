package server

// The default ballot seeded into a predictions lobby. Hosts play it as-is;
// a config option for custom ballots can come later.

type seedNominee struct {
	Name  string
	Movie string
}

type seedCategory struct {
	Name     string
	Nominees []seedNominee
}

var defaultBallot = []seedCategory{
	{
		Name: "Best Picture",
		Nominees: []seedNominee{
			{Name: "Anora", Movie: "Anora"},
			{Name: "The Brutalist", Movie: "The Brutalist"},
			{Name: "Conclave", Movie: "Conclave"},
			{Name: "Dune: Part Two", Movie: "Dune: Part Two"},
			{Name: "Wicked", Movie: "Wicked"},
		},
	},
	{
		Name: "Best Director",
		Nominees: []seedNominee{
			{Name: "Sean Baker", Movie: "Anora"},
			{Name: "Brady Corbet", Movie: "The Brutalist"},
			{Name: "James Mangold", Movie: "A Complete Unknown"},
			{Name: "Jacques Audiard", Movie: "Emilia Pérez"},
			{Name: "Coralie Fargeat", Movie: "The Substance"},
		},
	},
	{
		Name: "Best Actor",
		Nominees: []seedNominee{
			{Name: "Adrien Brody", Movie: "The Brutalist"},
			{Name: "Timothée Chalamet", Movie: "A Complete Unknown"},
			{Name: "Colman Domingo", Movie: "Sing Sing"},
			{Name: "Ralph Fiennes", Movie: "Conclave"},
			{Name: "Sebastian Stan", Movie: "The Apprentice"},
		},
	},
	{
		Name: "Best Actress",
		Nominees: []seedNominee{
			{Name: "Cynthia Erivo", Movie: "Wicked"},
			{Name: "Karla Sofía Gascón", Movie: "Emilia Pérez"},
			{Name: "Mikey Madison", Movie: "Anora"},
			{Name: "Demi Moore", Movie: "The Substance"},
			{Name: "Fernanda Torres", Movie: "I'm Still Here"},
		},
	},
	{
		Name: "Best Supporting Actor",
		Nominees: []seedNominee{
			{Name: "Yura Borisov", Movie: "Anora"},
			{Name: "Kieran Culkin", Movie: "A Real Pain"},
			{Name: "Edward Norton", Movie: "A Complete Unknown"},
			{Name: "Guy Pearce", Movie: "The Brutalist"},
			{Name: "Jeremy Strong", Movie: "The Apprentice"},
		},
	},
	{
		Name: "Best Supporting Actress",
		Nominees: []seedNominee{
			{Name: "Monica Barbaro", Movie: "A Complete Unknown"},
			{Name: "Ariana Grande", Movie: "Wicked"},
			{Name: "Felicity Jones", Movie: "The Brutalist"},
			{Name: "Isabella Rossellini", Movie: "Conclave"},
			{Name: "Zoe Saldaña", Movie: "Emilia Pérez"},
		},
	},
	{
		Name: "Best Animated Feature",
		Nominees: []seedNominee{
			{Name: "Flow", Movie: "Flow"},
			{Name: "Inside Out 2", Movie: "Inside Out 2"},
			{Name: "Memoir of a Snail", Movie: "Memoir of a Snail"},
			{Name: "Wallace & Gromit: Vengeance Most Fowl", Movie: "Wallace & Gromit: Vengeance Most Fowl"},
			{Name: "The Wild Robot", Movie: "The Wild Robot"},
		},
	},
	{
		Name: "Best Original Screenplay",
		Nominees: []seedNominee{
			{Name: "Anora", Movie: "Anora"},
			{Name: "The Brutalist", Movie: "The Brutalist"},
			{Name: "A Real Pain", Movie: "A Real Pain"},
			{Name: "September 5", Movie: "September 5"},
			{Name: "The Substance", Movie: "The Substance"},
		},
	},
}
