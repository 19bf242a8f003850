package exams

import "github.com/prepmate/practice-service/internal/models"

var recentYears = []string{"2015", "2016", "2017", "2018", "2019", "2020", "2021", "2022", "2023", "2024"}

// defaultExams mirrors the bundled exam structure: JAMB, SAT and NEET with
// their standard per-subject counts and time limits.
func defaultExams() []ExamConfig {
	return []ExamConfig{
		{
			Name:        "jamb",
			DisplayName: "JAMB",
			DefaultMode: models.ModeTopic,
			Subjects: []SubjectConfig{
				{
					Name:             "English Language",
					QuestionsPerExam: 60,
					TimeLimitMinutes: 60,
					Years:            recentYears,
					Topics:           []string{"Comprehension", "Lexis and Structure", "Oral English", "Summary"},
				},
				{
					Name:             "Mathematics",
					QuestionsPerExam: 50,
					TimeLimitMinutes: 60,
					Years:            recentYears,
					Topics:           []string{"Algebra", "Geometry", "Trigonometry", "Calculus", "Statistics"},
				},
				{
					Name:             "Biology",
					QuestionsPerExam: 50,
					TimeLimitMinutes: 60,
					Years:            recentYears,
					Topics:           []string{"Cell Biology", "Genetics", "Ecology", "Evolution", "Physiology"},
				},
				{
					Name:             "Chemistry",
					QuestionsPerExam: 50,
					TimeLimitMinutes: 60,
					Years:            recentYears,
					Topics:           []string{"Atomic Structure", "Chemical Bonding", "Acids and Bases", "Organic Chemistry", "Electrochemistry"},
				},
				{
					Name:             "Physics",
					QuestionsPerExam: 50,
					TimeLimitMinutes: 60,
					Years:            recentYears,
					Topics:           []string{"Mechanics", "Electricity", "Waves", "Thermodynamics", "Optics"},
				},
			},
		},
		{
			Name:        "sat",
			DisplayName: "SAT",
			DefaultMode: models.ModeMixed,
			Subjects: []SubjectConfig{
				{
					Name:             "Math",
					QuestionsPerExam: 58,
					TimeLimitMinutes: 80,
					Years:            []string{"2020", "2021", "2022", "2023", "2024"},
					Topics:           []string{"Algebra", "Advanced Math", "Problem Solving and Data Analysis", "Geometry and Trigonometry"},
				},
				{
					Name:             "Reading and Writing",
					QuestionsPerExam: 54,
					TimeLimitMinutes: 64,
					Years:            []string{"2020", "2021", "2022", "2023", "2024"},
					Topics:           []string{"Reading Comprehension", "Grammar", "Vocabulary", "Rhetorical Analysis"},
				},
			},
		},
		{
			Name:        "neet",
			DisplayName: "NEET",
			DefaultMode: models.ModeMixed,
			Subjects: []SubjectConfig{
				{
					Name:             "Physics",
					QuestionsPerExam: 45,
					TimeLimitMinutes: 60,
					Years:            []string{"2019", "2020", "2021", "2022", "2023", "2024"},
					Topics:           []string{"Mechanics", "Thermodynamics", "Optics", "Electrodynamics", "Modern Physics"},
				},
				{
					Name:             "Chemistry",
					QuestionsPerExam: 45,
					TimeLimitMinutes: 60,
					Years:            []string{"2019", "2020", "2021", "2022", "2023", "2024"},
					Topics:           []string{"Organic Chemistry", "Inorganic Chemistry", "Physical Chemistry"},
				},
				{
					Name:             "Biology",
					QuestionsPerExam: 90,
					TimeLimitMinutes: 90,
					Years:            []string{"2019", "2020", "2021", "2022", "2023", "2024"},
					Topics:           []string{"Cell Biology", "Genetics", "Ecology", "Human Physiology", "Plant Physiology"},
				},
			},
		},
	}
}
