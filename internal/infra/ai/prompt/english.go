package prompt

import "github.com/bryanwahyu/codelens/internal/domain/analysis"

var english = Catalog{
	locale: "en",
	system: "You are an expert in code analysis. Analyze the code precisely and give clear, structured answers. " +
		"Answer only the task you are given and avoid unnecessary information.",
	codeHeading: "**Code:**",
	modelError:  "model call failed",
	stages: map[analysis.Stage]stageText{
		analysis.StageStructure: {
			label:        "Code Structure",
			failureLabel: "Structure analysis failed",
			priorHeading: "Based on the following code structure",
			task: "Analyze the following code and describe its structure. " +
				"List all classes, functions, global variables and significant imports. " +
				"Give the answer in a clear, structured form (for example as a list or sections). " +
				"Example:\n- Classes: name, description\n- Functions: name, parameters\n- Global variables: name, type",
		},
		analysis.StageExplain: {
			label:        "Explanations of Variables/Functions",
			failureLabel: "Explanation failed",
			priorHeading: "Explanations",
			task: "Explain every variable and function in the code in detail. For each variable state:\n" +
				"- Name\n- Type (e.g. int, str)\n- Purpose\n- Usage\n" +
				"For each function state:\n" +
				"- Name\n- Parameters\n- Return value\n- Purpose\n- How it is used\n" +
				"Format the answer clearly, for example as a list or table.",
		},
		analysis.StageTechReview: {
			label:        "Technical Review",
			failureLabel: "Technical review failed",
			priorHeading: "Technical review",
			task: "Perform a technical review of the code. Assess:\n" +
				"- Readability (e.g. naming, structure)\n" +
				"- Performance (e.g. efficiency, scalability)\n" +
				"- Error-proneness (e.g. missing error handling)\n" +
				"- Security (e.g. input validation)\n" +
				"Give concrete improvement suggestions and explain why they matter. " +
				"Format the answer in one section per category.",
		},
		analysis.StageProfReview: {
			label:        "Professional Review",
			failureLabel: "Professional review failed",
			priorHeading: "Professional review",
			task: "Perform a professional review. Assess:\n" +
				"- Maintainability (e.g. modularity, documentation)\n" +
				"- Scalability (e.g. fitness for larger projects)\n" +
				"- Fitness for purpose (e.g. does the code meet its requirements?)\n" +
				"- Adherence to best practices and style conventions (e.g. PEP 8 for Python)\n" +
				"Give recommendations on how to improve the code and compare it with industry standards. " +
				"Format the answer in clear sections.",
		},
	},
}
