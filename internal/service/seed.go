package service

import "github.com/vyrodovalexey/benefits-example/internal/model"

// SeedEmployees is the demonstration dataset loaded at startup.
var SeedEmployees = []model.EmployeeMutation{
	{
		FirstName: "Fred",
		LastName:  "Flintstone",
		Dependents: []model.Dependent{
			dependent("Wilma", "Flintstone"),
			dependent("Pebbles", "Flintstone"),
			dependent("Bam-Bam", "Flintstone"),
		},
	},
	{
		FirstName: "Tony",
		LastName:  "Soprano",
		Dependents: []model.Dependent{
			dependent("Carmela", "Soprano"),
			dependent("AJ", "Soprano"),
			dependent("Meadow", "Soprano"),
		},
	},
	{
		FirstName: "Darth",
		LastName:  "Vader",
		Dependents: []model.Dependent{
			dependent("Luke", "Skywalker"),
			dependent("Leia", "Organa"),
		},
	},
	{
		FirstName:  "James",
		LastName:   "Bond",
		Dependents: []model.Dependent{},
	},
	{
		FirstName: "Daenerys",
		LastName:  "Targaryen",
		Dependents: []model.Dependent{
			dependent("Drogon", "Targaryen"),
			dependent("Rhaegal", "Targaryen"),
			dependent("Viserion", "Targaryen"),
		},
	},
}

func dependent(firstName, lastName string) model.Dependent {
	return model.Dependent{Person: model.Person{FirstName: firstName, LastName: lastName}}
}
