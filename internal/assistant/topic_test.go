package assistant

import "testing"

func TestIsHomeeesRelated(t *testing.T) {
	tests := []struct {
		message string
		want    bool
	}{
		{"Quel est le tarif de gestion locative à Paris ?", true},
		{"What's the weather today?", false},
		{"HOMEES c'est quoi ?", true},
		{"Je cherche un gestionnaire à Lyon", true},
		{"Mon appartement a un DPE F, est-ce un problème ?", true},
		{"Combien prenez-vous de COMMISSION ?", true},
		{"I'm a landlord looking for help", true},
		{"Raconte-moi une blague", false},
		{"Any suggestion for dinner?", false},
		{"How do I apply for parental leave?", false},
		{"Who was the lieutenant in that movie?", false},
		{"Any suggestion de film ce soir ?", false},
		{"What is the child allocation amount?", false},
		{"Vos locations saisonnières à Annecy ?", true},
		{"Les propriétaires paient-ils des frais ?", true},
		{"(loyer) impayé", true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			if got := IsHomeeesRelated(tt.message); got != tt.want {
				t.Errorf("IsHomeeesRelated(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}

func TestEveryKeywordMatches(t *testing.T) {
	for _, k := range keywords {
		if !IsHomeeesRelated("à propos de " + k + " !") {
			t.Errorf("keyword %q not detected", k)
		}
	}
}

func TestCountConsecutiveOffTopic(t *testing.T) {
	user := func(s string) Turn { return Turn{Text: s, IsUser: true} }
	bot := func(s string) Turn { return Turn{Text: s} }

	tests := []struct {
		name    string
		history []Turn
		want    int
	}{
		{"nil", nil, 0},
		{"empty", []Turn{}, 0},
		{"last on-topic", []Turn{user("blague"), user("un loyer à Lyon")}, 0},
		{"trailing off-topic", []Turn{user("tarif à Paris"), bot("..."), user("météo"), bot("..."), user("football")}, 2},
		{"assistant turns skipped even if off-topic", []Turn{user("météo"), bot("Il fait beau"), bot("autre")}, 1},
		{"assistant keyword does not stop count", []Turn{user("météo"), bot("Parlons de gestion locative"), user("football")}, 2},
		{"all off-topic", []Turn{user("a"), user("b"), user("c")}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountConsecutiveOffTopic(tt.history); got != tt.want {
				t.Errorf("CountConsecutiveOffTopic() = %d, want %d", got, tt.want)
			}
		})
	}
}
