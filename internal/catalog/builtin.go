package catalog

// BuiltinVersion identifies the compiled-in catalog release.
const BuiltinVersion = "builtin-2025.08"

// Builtin returns the compiled-in default catalog. It covers the common
// outpatient formulary and the interaction pairs with established evidence;
// production deployments layer a curated catalog file on top via Load.
func Builtin() (*Catalog, error) {
	return New(builtinDocument())
}

func builtinDocument() *Document {
	return &Document{
		Version: BuiltinVersion,
		Memberships: map[string][]string{
			// NSAIDs and analgesics
			"ibuprofen":     {"nsaid", "pain_reliever"},
			"aspirin":       {"nsaid", "pain_reliever", "antiplatelet"},
			"naproxen":      {"nsaid", "pain_reliever"},
			"diclofenac":    {"nsaid", "pain_reliever"},
			"indomethacin":  {"nsaid", "pain_reliever"},
			"celecoxib":     {"nsaid", "cox2_inhibitor"},
			"paracetamol":   {"analgesic", "antipyretic"},
			"acetaminophen": {"analgesic", "antipyretic"},
			"tramadol":      {"opioid", "analgesic"},
			"morphine":      {"opioid", "analgesic"},
			"codeine":       {"opioid", "analgesic"},

			// Antibiotics
			"amoxicillin":      {"antibiotic", "penicillin"},
			"ampicillin":       {"antibiotic", "penicillin"},
			"penicillin":       {"antibiotic", "penicillin"},
			"piperacillin":     {"antibiotic", "penicillin"},
			"cefixime":         {"antibiotic", "cephalosporin"},
			"ceftriaxone":      {"antibiotic", "cephalosporin"},
			"cephalexin":       {"antibiotic", "cephalosporin"},
			"cefuroxime":       {"antibiotic", "cephalosporin"},
			"ciprofloxacin":    {"antibiotic", "fluoroquinolone"},
			"levofloxacin":     {"antibiotic", "fluoroquinolone"},
			"moxifloxacin":     {"antibiotic", "fluoroquinolone"},
			"azithromycin":     {"antibiotic", "macrolide"},
			"erythromycin":     {"antibiotic", "macrolide"},
			"clarithromycin":   {"antibiotic", "macrolide"},
			"metronidazole":    {"antibiotic", "nitroimidazole"},
			"doxycycline":      {"antibiotic", "tetracycline"},
			"sulfamethoxazole": {"antibiotic", "sulfa"},

			// Anticoagulants and antiplatelets
			"warfarin":    {"anticoagulant", "blood_thinner"},
			"heparin":     {"anticoagulant", "blood_thinner"},
			"enoxaparin":  {"anticoagulant", "blood_thinner", "lmwh"},
			"rivaroxaban": {"anticoagulant", "blood_thinner", "doac"},
			"apixaban":    {"anticoagulant", "blood_thinner", "doac"},
			"clopidogrel": {"antiplatelet", "blood_thinner"},

			// Diabetes
			"metformin":     {"antidiabetic", "biguanide"},
			"glimepiride":   {"antidiabetic", "sulfonylurea"},
			"gliclazide":    {"antidiabetic", "sulfonylurea"},
			"pioglitazone":  {"antidiabetic", "thiazolidinedione"},
			"sitagliptin":   {"antidiabetic", "dpp4_inhibitor"},
			"empagliflozin": {"antidiabetic", "sglt2_inhibitor"},
			"insulin":       {"antidiabetic", "insulin"},

			// Cardiovascular
			"amlodipine":          {"antihypertensive", "calcium_channel_blocker"},
			"diltiazem":           {"antihypertensive", "calcium_channel_blocker"},
			"verapamil":           {"antihypertensive", "calcium_channel_blocker"},
			"losartan":            {"antihypertensive", "arb"},
			"telmisartan":         {"antihypertensive", "arb"},
			"valsartan":           {"antihypertensive", "arb"},
			"enalapril":           {"antihypertensive", "ace_inhibitor"},
			"ramipril":            {"antihypertensive", "ace_inhibitor"},
			"lisinopril":          {"antihypertensive", "ace_inhibitor"},
			"atenolol":            {"antihypertensive", "beta_blocker"},
			"metoprolol":          {"antihypertensive", "beta_blocker"},
			"propranolol":         {"antihypertensive", "beta_blocker"},
			"hydrochlorothiazide": {"antihypertensive", "diuretic", "thiazide"},
			"furosemide":          {"antihypertensive", "diuretic", "loop_diuretic"},
			"spironolactone":      {"antihypertensive", "diuretic", "potassium_sparing"},
			"digoxin":             {"cardiac_glycoside"},
			"amiodarone":          {"antiarrhythmic"},
			"isosorbide":          {"nitrate", "vasodilator"},
			"sildenafil":          {"pde5_inhibitor", "vasodilator"},
			"tadalafil":           {"pde5_inhibitor", "vasodilator"},

			// Lipids
			"atorvastatin": {"statin", "cholesterol"},
			"rosuvastatin": {"statin", "cholesterol"},
			"simvastatin":  {"statin", "cholesterol"},
			"fenofibrate":  {"fibrate", "cholesterol"},

			// Acid reducers
			"omeprazole":   {"ppi", "acid_reducer"},
			"pantoprazole": {"ppi", "acid_reducer"},
			"esomeprazole": {"ppi", "acid_reducer"},
			"famotidine":   {"h2_blocker", "acid_reducer"},

			// CNS
			"alprazolam":    {"benzodiazepine", "anxiolytic"},
			"diazepam":      {"benzodiazepine", "anxiolytic"},
			"lorazepam":     {"benzodiazepine", "anxiolytic"},
			"escitalopram":  {"antidepressant", "ssri"},
			"sertraline":    {"antidepressant", "ssri"},
			"fluoxetine":    {"antidepressant", "ssri"},
			"amitriptyline": {"antidepressant", "tca"},
			"lithium":       {"mood_stabilizer"},

			// Steroids, respiratory, misc
			"prednisolone":    {"corticosteroid", "steroid"},
			"prednisone":      {"corticosteroid", "steroid"},
			"dexamethasone":   {"corticosteroid", "steroid"},
			"theophylline":    {"bronchodilator", "methylxanthine"},
			"salbutamol":      {"bronchodilator", "beta2_agonist"},
			"montelukast":     {"leukotriene_antagonist", "asthma"},
			"levothyroxine":   {"thyroid", "t4"},
			"methotrexate":    {"immunosuppressant", "antifolate"},
			"azathioprine":    {"immunosuppressant"},
			"allopurinol":     {"xanthine_oxidase_inhibitor", "antigout"},
			"domperidone":     {"prokinetic", "antiemetic"},
			"ondansetron":     {"antiemetic", "5ht3_antagonist"},
			"gabapentin":      {"anticonvulsant", "neuropathic_analgesic"},
			"pregabalin":      {"anticonvulsant", "neuropathic_analgesic"},
			"cetirizine":      {"antihistamine", "h1_blocker"},
			"loratadine":      {"antihistamine", "h1_blocker"},
			"cholecalciferol": {"vitamin", "supplement"},
			"calcium":         {"mineral", "supplement"},
			"ferrous sulfate": {"mineral", "supplement"},
		},
		Interactions: []InteractionRule{
			{RuleID: "DDI-WARF-ASA", DrugA: "warfarin", DrugB: "aspirin", Severity: "major",
				Mechanism:  "Both drugs affect hemostasis through different mechanisms",
				Management: "Avoid combination if possible. If necessary, use lowest effective aspirin dose, monitor INR closely and watch for bleeding signs."},
			{RuleID: "DDI-WARF-CLOP", DrugA: "warfarin", DrugB: "clopidogrel", Severity: "major",
				Mechanism:  "Combined anticoagulant and antiplatelet effects",
				Management: "Monitor closely for signs of bleeding. Consider PPI for GI protection."},
			{RuleID: "DDI-WARF-IBU", DrugA: "warfarin", DrugB: "ibuprofen", Severity: "major",
				Mechanism:  "NSAIDs inhibit platelet function and can increase warfarin levels",
				Management: "Use acetaminophen instead. If NSAID needed, use lowest dose for shortest time."},
			{RuleID: "DDI-WARF-METRO", DrugA: "warfarin", DrugB: "metronidazole", Severity: "major",
				Mechanism:  "Metronidazole inhibits warfarin metabolism",
				Management: "Reduce warfarin dose by 25-30% and monitor INR."},
			{RuleID: "DDI-WARF-AZI", DrugA: "warfarin", DrugB: "azithromycin", Severity: "moderate",
				Mechanism:  "Azithromycin may inhibit warfarin metabolism",
				Management: "Monitor INR more frequently during antibiotic course."},
			{RuleID: "DDI-ASA-IBU", DrugA: "aspirin", DrugB: "ibuprofen", Severity: "moderate",
				Mechanism:  "Competitive inhibition of COX-1 platelet binding site",
				Management: "Take aspirin 30 minutes before ibuprofen or use alternative analgesic."},
			{RuleID: "DDI-ACE-SPIRO-1", DrugA: "enalapril", DrugB: "spironolactone", Severity: "major",
				Mechanism:  "Both drugs increase potassium retention",
				Management: "Monitor potassium levels closely. Avoid in renal impairment."},
			{RuleID: "DDI-ACE-SPIRO-2", DrugA: "ramipril", DrugB: "spironolactone", Severity: "major",
				Mechanism:  "Both drugs increase potassium retention",
				Management: "Monitor potassium levels closely. Avoid in renal impairment."},
			{RuleID: "DDI-ACE-SPIRO-3", DrugA: "lisinopril", DrugB: "spironolactone", Severity: "major",
				Mechanism:  "Both drugs increase potassium retention",
				Management: "Monitor potassium levels closely. Avoid in renal impairment."},
			{RuleID: "DDI-SSRI-TRAM-1", DrugA: "escitalopram", DrugB: "tramadol", Severity: "major",
				Mechanism:  "Both drugs increase serotonin levels",
				Management: "Use with caution. Monitor for confusion, rapid heart rate, high blood pressure."},
			{RuleID: "DDI-SSRI-TRAM-2", DrugA: "sertraline", DrugB: "tramadol", Severity: "major",
				Mechanism:  "Both drugs increase serotonin levels",
				Management: "Use with caution. Monitor for confusion, rapid heart rate, high blood pressure."},
			{RuleID: "DDI-SIMVA-CLARI", DrugA: "simvastatin", DrugB: "clarithromycin", Severity: "major",
				Mechanism:  "Clarithromycin inhibits CYP3A4 which metabolizes simvastatin",
				Management: "Use azithromycin instead, or temporarily stop statin."},
			{RuleID: "DDI-SIMVA-ERY", DrugA: "simvastatin", DrugB: "erythromycin", Severity: "major",
				Mechanism:  "Erythromycin inhibits CYP3A4 which metabolizes simvastatin",
				Management: "Use azithromycin instead, or temporarily stop statin."},
			{RuleID: "DDI-ATOR-CLARI", DrugA: "atorvastatin", DrugB: "clarithromycin", Severity: "moderate",
				Mechanism:  "Clarithromycin inhibits CYP3A4",
				Management: "Use lower statin dose or choose azithromycin."},
			{RuleID: "DDI-CLOP-OME", DrugA: "clopidogrel", DrugB: "omeprazole", Severity: "moderate",
				Mechanism:  "Omeprazole inhibits CYP2C19 needed to activate clopidogrel",
				Management: "Use pantoprazole or an H2 blocker instead."},
			{RuleID: "DDI-CLOP-ESO", DrugA: "clopidogrel", DrugB: "esomeprazole", Severity: "moderate",
				Mechanism:  "Esomeprazole inhibits CYP2C19 needed to activate clopidogrel",
				Management: "Use pantoprazole or an H2 blocker instead."},
			{RuleID: "DDI-CIPRO-PRED", DrugA: "ciprofloxacin", DrugB: "prednisolone", Severity: "moderate",
				Mechanism:  "Both drugs independently increase tendon damage risk",
				Management: "Monitor for tendon pain. Consider alternative antibiotic."},
			{RuleID: "DDI-DIG-AMIO", DrugA: "digoxin", DrugB: "amiodarone", Severity: "major",
				Mechanism:  "Amiodarone decreases digoxin clearance",
				Management: "Reduce digoxin dose by 50% and monitor levels."},
			{RuleID: "DDI-DIG-VERA", DrugA: "digoxin", DrugB: "verapamil", Severity: "major",
				Mechanism:  "Verapamil decreases digoxin clearance and adds to AV block",
				Management: "Reduce digoxin dose and monitor heart rate."},
			{RuleID: "DDI-MTX-IBU", DrugA: "methotrexate", DrugB: "ibuprofen", Severity: "major",
				Mechanism:  "NSAIDs reduce methotrexate renal clearance",
				Management: "Avoid NSAIDs or reduce methotrexate dose with close monitoring."},
			{RuleID: "DDI-MTX-ASA", DrugA: "methotrexate", DrugB: "aspirin", Severity: "major",
				Mechanism:  "Aspirin displaces methotrexate from protein binding",
				Management: "Avoid combination or monitor methotrexate levels closely."},
			{RuleID: "DDI-THEO-CIPRO", DrugA: "theophylline", DrugB: "ciprofloxacin", Severity: "major",
				Mechanism:  "Ciprofloxacin inhibits theophylline metabolism",
				Management: "Monitor theophylline levels and reduce dose if needed."},
			{RuleID: "DDI-LITH-IBU", DrugA: "lithium", DrugB: "ibuprofen", Severity: "major",
				Mechanism:  "NSAIDs reduce lithium renal clearance",
				Management: "Avoid NSAIDs or monitor lithium levels closely."},
			{RuleID: "DDI-LITH-HCTZ", DrugA: "lithium", DrugB: "hydrochlorothiazide", Severity: "major",
				Mechanism:  "Thiazides reduce lithium clearance",
				Management: "Monitor lithium levels and adjust dose."},
			{RuleID: "DDI-AZI-DOMP", DrugA: "azithromycin", DrugB: "domperidone", Severity: "major",
				Mechanism:  "Both drugs prolong the QT interval",
				Management: "Avoid combination. Use alternative antiemetic."},
			{RuleID: "DDI-SIL-ISO", DrugA: "sildenafil", DrugB: "isosorbide", Severity: "contraindicated",
				Mechanism:  "Synergistic vasodilation causes life-threatening hypotension",
				Management: "Combination is absolutely contraindicated."},
			{RuleID: "DDI-TAD-ISO", DrugA: "tadalafil", DrugB: "isosorbide", Severity: "contraindicated",
				Mechanism:  "Synergistic vasodilation causes life-threatening hypotension",
				Management: "Combination is absolutely contraindicated."},
			{RuleID: "DDI-ALLO-AZA", DrugA: "allopurinol", DrugB: "azathioprine", Severity: "major",
				Mechanism:  "Allopurinol inhibits xanthine oxidase which metabolizes azathioprine",
				Management: "Reduce azathioprine dose by 75% if combination necessary."},
			{RuleID: "DDI-LEVO-CALC", DrugA: "levothyroxine", DrugB: "calcium", Severity: "moderate",
				Mechanism:  "Calcium forms complexes with levothyroxine in the GI tract",
				Management: "Take levothyroxine 4 hours apart from calcium supplements."},
			{RuleID: "DDI-LEVO-OME", DrugA: "levothyroxine", DrugB: "omeprazole", Severity: "moderate",
				Mechanism:  "Reduced gastric acid affects levothyroxine absorption",
				Management: "Monitor TSH levels; may need levothyroxine dose adjustment."},
		},
		ClassInteractions: []ClassInteractionRule{
			{RuleID: "CLS-NSAID-ANTICOAG", ClassA: "nsaid", ClassB: "anticoagulant", Severity: "major",
				Mechanism:  "NSAIDs increase bleeding risk with anticoagulants",
				Management: "Avoid NSAIDs with anticoagulants when possible."},
			{RuleID: "CLS-NSAID-ACE", ClassA: "nsaid", ClassB: "ace_inhibitor", Severity: "moderate",
				Mechanism:  "NSAIDs may reduce antihypertensive effect and worsen renal function",
				Management: "Monitor blood pressure and renal function."},
			{RuleID: "CLS-NSAID-ARB", ClassA: "nsaid", ClassB: "arb", Severity: "moderate",
				Mechanism:  "NSAIDs may reduce antihypertensive effect and worsen renal function",
				Management: "Monitor blood pressure and renal function."},
			{RuleID: "CLS-BENZO-OPIOID", ClassA: "benzodiazepine", ClassB: "opioid", Severity: "major",
				Mechanism:  "Combined CNS depression risk",
				Management: "Avoid combination. Black box warning exists."},
			{RuleID: "CLS-SSRI-OPIOID", ClassA: "ssri", ClassB: "opioid", Severity: "major",
				Mechanism:  "Risk of serotonin syndrome with certain opioids",
				Management: "Monitor for serotonin syndrome symptoms."},
			{RuleID: "CLS-STATIN-FIBRATE", ClassA: "statin", ClassB: "fibrate", Severity: "major",
				Mechanism:  "Increased myopathy risk",
				Management: "Use lowest effective statin dose. Monitor for muscle symptoms."},
			{RuleID: "CLS-PPI-ANTIPLAT", ClassA: "ppi", ClassB: "antiplatelet", Severity: "moderate",
				Mechanism:  "PPIs may reduce antiplatelet activation via CYP2C19 inhibition",
				Management: "Use pantoprazole if a PPI is needed."},
			{RuleID: "CLS-FQ-STEROID", ClassA: "fluoroquinolone", ClassB: "corticosteroid", Severity: "moderate",
				Mechanism:  "Both classes independently increase tendon damage risk",
				Management: "Monitor for tendon pain. Consider alternative antibiotic."},
		},
		Contraindications: []Contraindication{
			{RuleID: "CI-RENAL-METF", Target: "metformin", Condition: "renal_impairment", Level: LEVEL_CONTRAINDICATED,
				Mechanism: "Accumulation risks lactic acidosis", Management: "Avoid; review eGFR before any re-challenge."},
			{RuleID: "CI-RENAL-NSAID", Target: "nsaid", TargetIsClass: true, Condition: "renal_impairment", Level: LEVEL_USE_CAUTION,
				Mechanism: "Reduced prostaglandin-mediated renal blood flow", Management: "Prefer alternatives; monitor renal function."},
			{RuleID: "CI-RENAL-ACE", Target: "ace_inhibitor", TargetIsClass: true, Condition: "renal_impairment", Level: LEVEL_USE_CAUTION,
				Management: "Monitor potassium and creatinine."},
			{RuleID: "CI-RENAL-GABA", Target: "gabapentin", Condition: "renal_impairment", Level: LEVEL_DOSE_ADJUSTMENT,
				Management: "Reduce dose according to creatinine clearance."},
			{RuleID: "CI-LIVER-MTX", Target: "methotrexate", Condition: "liver_disease", Level: LEVEL_CONTRAINDICATED,
				Mechanism: "Hepatotoxic", Management: "Avoid."},
			{RuleID: "CI-LIVER-STATIN", Target: "statin", TargetIsClass: true, Condition: "liver_disease", Level: LEVEL_USE_CAUTION,
				Management: "Monitor liver enzymes."},
			{RuleID: "CI-HF-NSAID", Target: "nsaid", TargetIsClass: true, Condition: "heart_failure", Level: LEVEL_CONTRAINDICATED,
				Mechanism: "Fluid retention worsens heart failure", Management: "Avoid NSAIDs; use paracetamol for analgesia."},
			{RuleID: "CI-HF-TZD", Target: "thiazolidinedione", TargetIsClass: true, Condition: "heart_failure", Level: LEVEL_CONTRAINDICATED,
				Mechanism: "Fluid retention worsens heart failure", Management: "Choose another antidiabetic class."},
			{RuleID: "CI-ASTHMA-BB", Target: "beta_blocker", TargetIsClass: true, Condition: "asthma", Level: LEVEL_CONTRAINDICATED,
				Mechanism: "Bronchoconstriction risk", Management: "Avoid non-selective beta blockers."},
			{RuleID: "CI-ASTHMA-NSAID", Target: "nsaid", TargetIsClass: true, Condition: "asthma", Level: LEVEL_USE_CAUTION,
				Mechanism: "NSAID-exacerbated respiratory disease", Management: "Screen for aspirin sensitivity."},
			{RuleID: "CI-PREG-WARF", Target: "warfarin", Condition: "pregnancy", Level: LEVEL_CONTRAINDICATED,
				Mechanism: "Teratogenic", Management: "Switch to LMWH."},
			{RuleID: "CI-PREG-ACE", Target: "ace_inhibitor", TargetIsClass: true, Condition: "pregnancy", Level: LEVEL_CONTRAINDICATED,
				Mechanism: "Fetal renal toxicity", Management: "Switch antihypertensive class."},
			{RuleID: "CI-PREG-ARB", Target: "arb", TargetIsClass: true, Condition: "pregnancy", Level: LEVEL_CONTRAINDICATED,
				Mechanism: "Fetal renal toxicity", Management: "Switch antihypertensive class."},
			{RuleID: "CI-PREG-STATIN", Target: "statin", TargetIsClass: true, Condition: "pregnancy", Level: LEVEL_CONTRAINDICATED,
				Management: "Suspend statin therapy during pregnancy."},
			{RuleID: "CI-PREG-MTX", Target: "methotrexate", Condition: "pregnancy", Level: LEVEL_CONTRAINDICATED,
				Mechanism: "Teratogenic and abortifacient", Management: "Absolute contraindication."},
			{RuleID: "CI-PREG-NSAID", Target: "nsaid", TargetIsClass: true, Condition: "pregnancy", Level: LEVEL_USE_CAUTION,
				Management: "Avoid in third trimester."},
			{RuleID: "CI-ULCER-NSAID", Target: "nsaid", TargetIsClass: true, Condition: "gi_ulcer", Level: LEVEL_USE_CAUTION,
				Mechanism: "Mucosal injury and bleeding risk", Management: "Add PPI cover or use alternatives."},
			{RuleID: "CI-ULCER-STEROID", Target: "corticosteroid", TargetIsClass: true, Condition: "gi_ulcer", Level: LEVEL_USE_CAUTION,
				Management: "Add PPI cover; monitor for GI bleeding."},
		},
		Allergies: []AllergyRule{
			{RuleID: "ALG-PENICILLIN", Allergen: "penicillin",
				MatchClasses:         []string{"penicillin"},
				CrossReactiveClasses: []string{"cephalosporin"},
				CrossSeverity:        "major",
				Alternatives:         []string{"azithromycin", "ciprofloxacin", "doxycycline"}},
			{RuleID: "ALG-SULFA", Allergen: "sulfa",
				MatchClasses: []string{"sulfa"},
				Alternatives: []string{"amoxicillin", "azithromycin", "ciprofloxacin"}},
			{RuleID: "ALG-NSAID", Allergen: "nsaid",
				MatchClasses: []string{"nsaid"},
				Alternatives: []string{"acetaminophen"}},
			{RuleID: "ALG-ASPIRIN", Allergen: "aspirin",
				MatchDrugs:           []string{"aspirin"},
				CrossReactiveClasses: []string{"nsaid"},
				CrossSeverity:        "major",
				Alternatives:         []string{"acetaminophen", "celecoxib"}},
		},
		Allowlist: Allowlist{
			Classes: []string{"vitamin", "mineral", "supplement"},
			DrugPairs: [][2]string{
				{"aspirin", "clopidogrel"}, // dual antiplatelet therapy
				{"metformin", "sitagliptin"},
				{"metformin", "empagliflozin"},
				{"metformin", "glimepiride"},
				{"insulin", "metformin"},
			},
		},
	}
}
